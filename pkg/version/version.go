// Package version identifies the bridge build and the Hakuna API version
// it speaks.
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Current is the bridge version. Release builds override it with
// -ldflags "-X github.com/hakuna-bridge/hakuna-go/pkg/version.Current=x.y.z".
var Current = "0.4.0"

// APIVersion is sent as Accept-Version to the Hakuna API.
const APIVersion = "v1"

// BridgeVersion is a parsed "major.minor[.patch]" version.
type BridgeVersion struct {
	Major uint16
	Minor uint16
	Patch uint16
}

// Parse parses "major.minor" or "major.minor.patch", with an optional
// leading "v".
func Parse(s string) (BridgeVersion, error) {
	parts := strings.Split(strings.TrimPrefix(s, "v"), ".")
	if len(parts) < 2 || len(parts) > 3 {
		return BridgeVersion{}, fmt.Errorf("invalid version %q: expected major.minor[.patch]", s)
	}

	var nums [3]uint16
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 16)
		if err != nil || p == "" {
			return BridgeVersion{}, fmt.Errorf("invalid version %q: bad component %q", s, p)
		}
		nums[i] = uint16(n)
	}
	return BridgeVersion{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// String returns the version as "major.minor.patch".
func (v BridgeVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compatible returns true if the other version has the same major version.
// Pre-1.0 versions are only compatible within the same minor version.
func (v BridgeVersion) Compatible(other BridgeVersion) bool {
	if v.Major != other.Major {
		return false
	}
	return v.Major > 0 || v.Minor == other.Minor
}

// CompatibleWith reports whether a peer advertising s can be used by this
// build. Unparsable versions are incompatible.
func CompatibleWith(s string) bool {
	current, err := Parse(Current)
	if err != nil {
		return false
	}
	other, err := Parse(s)
	if err != nil {
		return false
	}
	return current.Compatible(other)
}

// UserAgent returns the default User-Agent for API requests.
func UserAgent() string {
	return "hakuna-bridge/" + Current
}
