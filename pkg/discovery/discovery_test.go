package discovery

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/enbility/zeroconf/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeServer struct {
	shutdowns int
}

func (f *fakeServer) Shutdown() { f.shutdowns++ }

type registration struct {
	instance, service, domain string
	port                      int
	text                      []string
	opts                      int
}

func fakeRegister(regs *[]registration, servers *[]*fakeServer, fail error) registerFunc {
	return func(instance, service, domain string, port int, text []string, _ []net.Interface, opts ...zeroconf.ServerOption) (server, error) {
		if fail != nil {
			return nil, fail
		}
		*regs = append(*regs, registration{instance, service, domain, port, text, len(opts)})
		s := &fakeServer{}
		*servers = append(*servers, s)
		return s, nil
	}
}

func TestAdvertise(t *testing.T) {
	var regs []registration
	var servers []*fakeServer
	a := NewAdvertiser(AdvertiserConfig{TTL: 2 * time.Minute})
	a.register = fakeRegister(&regs, &servers, nil)

	info := BridgeInfo{Instance: "office", Version: "1.2.0", Path: "/api/v1", Upstream: "app.hakuna.ch"}
	require.NoError(t, a.Advertise(context.Background(), info))

	require.Len(t, regs, 1)
	assert.Equal(t, "office", regs[0].instance)
	assert.Equal(t, ServiceType, regs[0].service)
	assert.Equal(t, Domain, regs[0].domain)
	assert.Equal(t, DefaultPort, regs[0].port)
	assert.Equal(t, []string{"path=/api/v1", "up=app.hakuna.ch", "ver=1.2.0"}, regs[0].text)
	assert.Equal(t, 1, regs[0].opts, "TTL option")

	got, ok := a.Advertised()
	assert.True(t, ok)
	assert.Equal(t, info, got)

	// Re-advertising replaces the registration.
	info.Port = 9000
	require.NoError(t, a.Advertise(context.Background(), info))
	require.Len(t, regs, 2)
	assert.Equal(t, 9000, regs[1].port)
	assert.Equal(t, 1, servers[0].shutdowns)

	require.NoError(t, a.Stop())
	assert.Equal(t, 1, servers[1].shutdowns)
	assert.ErrorIs(t, a.Stop(), ErrNotAdvertising)
	_, ok = a.Advertised()
	assert.False(t, ok)
}

func TestAdvertiseErrors(t *testing.T) {
	var regs []registration
	var servers []*fakeServer
	a := NewAdvertiser(AdvertiserConfig{})
	a.register = fakeRegister(&regs, &servers, errors.New("no multicast"))

	err := a.Advertise(context.Background(), BridgeInfo{Instance: "x", Version: "1", Path: "/"})
	assert.ErrorContains(t, err, "no multicast")

	err = a.Advertise(context.Background(), BridgeInfo{Instance: " "})
	assert.ErrorIs(t, err, ErrInvalidInstanceName)

	err = a.Advertise(context.Background(), BridgeInfo{Instance: strings.Repeat("a", 64)})
	assert.ErrorIs(t, err, ErrInvalidInstanceName)
}

func TestDecodeBridgeTXT(t *testing.T) {
	txt := StringsToTXTRecords([]string{"ver=1.0", "path=/api/v1", "flag", "", "up=a=b"})
	info, err := DecodeBridgeTXT(txt)
	require.NoError(t, err)
	assert.Equal(t, "1.0", info.Version)
	assert.Equal(t, "/api/v1", info.Path)
	assert.Equal(t, "a=b", info.Upstream, "only the first = separates")
	assert.Equal(t, "", txt["flag"])

	_, err = DecodeBridgeTXT(TXTRecordMap{TXTKeyPath: "/"})
	assert.ErrorIs(t, err, ErrMissingRequired)
	_, err = DecodeBridgeTXT(TXTRecordMap{TXTKeyVersion: "1"})
	assert.ErrorIs(t, err, ErrMissingRequired)
}

func TestEntryToService(t *testing.T) {
	entry := &zeroconf.ServiceEntry{
		ServiceRecord: zeroconf.ServiceRecord{Instance: "office", Service: ServiceType, Domain: Domain},
		HostName:      "pi.local.",
		Port:          8765,
		Text:          []string{"ver=1.0", "path=/api/v1"},
		AddrIPv4:      []net.IP{net.ParseIP("192.168.1.20")},
		AddrIPv6:      []net.IP{net.ParseIP("fe80::1")},
	}

	svc := entryToService(entry)
	require.NotNil(t, svc)
	assert.Equal(t, "office", svc.InstanceName)
	assert.Equal(t, uint16(8765), svc.Port)
	assert.Equal(t, []string{"192.168.1.20", "fe80::1"}, svc.Addresses)
	assert.Equal(t, "/api/v1", svc.Path)

	entry.Text = []string{"foo=bar"}
	assert.Nil(t, entryToService(entry), "foreign TXT records are skipped")
}
