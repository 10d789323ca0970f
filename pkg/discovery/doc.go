// Package discovery advertises the bridge's HTTP adapter via mDNS/DNS-SD
// and finds bridges on the local network.
//
// Bridges register the service type _hakuna-bridge._tcp. The instance name
// is user-chosen (default: the host name). TXT records carry:
//   - ver: bridge version
//   - path: API path prefix of the HTTP adapter, e.g. /api/v1
//   - up: host of the upstream Hakuna API
//
// The token is never advertised.
package discovery
