package enums

import (
	"fmt"
	"strings"
)

// Platform identifies the selling channel a session or sale ran on.
type Platform string

const (
	PlatformWhatnot   Platform = "whatnot"
	PlatformEbay      Platform = "ebay"
	PlatformInstagram Platform = "instagram"
	PlatformShow      Platform = "show"
	PlatformOther     Platform = "other"
)

var validPlatforms = []Platform{
	PlatformWhatnot,
	PlatformEbay,
	PlatformInstagram,
	PlatformShow,
	PlatformOther,
}

// Platforms lists every known Platform.
func Platforms() []Platform {
	return append([]Platform(nil), validPlatforms...)
}

// String implements fmt.Stringer.
func (v Platform) String() string {
	return string(v)
}

// IsValid reports whether the value is a known Platform.
func (v Platform) IsValid() bool {
	for _, candidate := range validPlatforms {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParsePlatform converts raw input into a Platform.
func ParsePlatform(value string) (Platform, error) {
	for _, candidate := range validPlatforms {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid platform %q", value)
}

// NormalizePlatform maps free-form channel text from exports onto a Platform,
// falling back to PlatformOther.
func NormalizePlatform(value string) Platform {
	p := Platform(strings.ToLower(strings.TrimSpace(value)))
	if p.IsValid() {
		return p
	}
	return PlatformOther
}
