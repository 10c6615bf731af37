// Package tag converts user supplied clan and player tags into the path
// segment form expected by the Clash of Clans API.
package tag

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// Marker is the character every canonical tag starts with.
	Marker = "#"
	// EncodedMarker is Marker after percent-encoding.
	EncodedMarker = "%23"
)

// Mode selects how inputs that are already percent-encoded are treated.
type Mode int

const (
	// ModeLegacy keeps the historical behaviour: a "%23" prefix suppresses the
	// added marker but the whole string is still encoded, so "%23ABC" becomes
	// "%2523ABC".
	ModeLegacy Mode = iota
	// ModeCanonical decodes input that starts with "%23" before encoding, so
	// Normalize is idempotent in this mode for any input.
	ModeCanonical
)

func (m Mode) String() string {
	switch m {
	case ModeCanonical:
		return "canonical"
	default:
		return "legacy"
	}
}

// ParseMode reads a mode name as used in configuration.
func ParseMode(value string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "legacy":
		return ModeLegacy, nil
	case "canonical", "fixed":
		return ModeCanonical, nil
	default:
		return ModeLegacy, fmt.Errorf("unknown tag mode %q", value)
	}
}

// Normalizer turns raw tags into encoded path segments.
type Normalizer struct {
	Mode Mode
}

// Normalize returns the encoded path segment for raw.
func (n Normalizer) Normalize(raw string) string {
	value := raw

	if n.Mode == ModeCanonical && strings.HasPrefix(value, EncodedMarker) {
		value = decode(value)
	}

	if !strings.HasPrefix(value, Marker) && !strings.HasPrefix(value, EncodedMarker) {
		value = Marker + value
	}

	return Encode(value)
}

// decode undoes a previous encoding. Malformed escapes only lose the marker
// prefix; the rest is kept as typed.
func decode(value string) string {
	if decoded, err := url.PathUnescape(value); err == nil {
		return decoded
	}
	return Marker + strings.TrimPrefix(value, EncodedMarker)
}

// Normalize uses the legacy mode.
func Normalize(raw string) string {
	return Normalizer{Mode: ModeLegacy}.Normalize(raw)
}

// Strip removes a leading marker in either literal or encoded form.
func Strip(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, EncodedMarker) {
		return strings.TrimPrefix(trimmed, EncodedMarker)
	}
	return strings.TrimPrefix(trimmed, Marker)
}
