package discovery

import (
	"errors"
	"time"
)

// Service constants for mDNS.
const (
	// ServiceType is the DNS-SD service type of a bridge.
	ServiceType = "_hakuna-bridge._tcp"

	// Domain is the mDNS domain.
	Domain = "local"

	// DefaultPort is used when the advertised port is 0.
	DefaultPort = 8765

	// MaxInstanceNameLen is the DNS label limit for instance names.
	MaxInstanceNameLen = 63
)

// TXT record keys.
const (
	TXTKeyVersion  = "ver"
	TXTKeyPath     = "path"
	TXTKeyUpstream = "up"
)

// Errors.
var (
	ErrMissingRequired     = errors.New("missing required TXT record")
	ErrInvalidInstanceName = errors.New("invalid instance name")
	ErrNotAdvertising      = errors.New("not advertising")
)

// BridgeInfo is what a bridge advertises.
type BridgeInfo struct {
	// Instance is the DNS-SD instance name.
	Instance string

	// Port of the HTTP adapter.
	Port uint16

	// Version of the bridge.
	Version string

	// Path is the API path prefix.
	Path string

	// Upstream is the host of the Hakuna API the bridge talks to.
	Upstream string
}

// BridgeService is a bridge found on the network.
type BridgeService struct {
	InstanceName string
	Host         string
	Port         uint16
	Addresses    []string
	Version      string
	Path         string
	Upstream     string
}

// AdvertiserConfig configures an Advertiser.
type AdvertiserConfig struct {
	// Interface restricts advertisement to one network interface.
	// Empty means all interfaces.
	Interface string

	// TTL of the records. Zero uses the library default.
	TTL time.Duration
}

// BrowserConfig configures Browse.
type BrowserConfig struct {
	// Interface restricts browsing to one network interface.
	Interface string
}
