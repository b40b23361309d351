// Package version implements the title-version codec (component 4.10):
// conversion between a title's decimal on-disk version and its
// human-readable "major.minor" form, with a closed lookup table for the
// system menu title id.
package version

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ninjacheetah/gowiipkg/werr"
)

// SystemMenuTitleID is the title id that uses the named-release lookup
// table instead of the generic major.minor encoding.
var SystemMenuTitleID = [8]byte{0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x02}

// systemMenuVersions maps named system menu releases to their decimal
// encoding. This is a representative subset of the well-known public
// releases, not an exhaustive reproduction of every regional variant.
var systemMenuVersions = map[string]uint16{
	"1.0J":        128,
	"4.3U":        513,
	"4.3E":        514,
	"4.3K":        518,
	"4.3U-Mini":   549,
	"vWii-5.2.0U": 10500,
}

func isSystemMenu(titleID [8]byte) bool {
	return titleID == SystemMenuTitleID
}

// Encode converts a human-readable version string to its decimal form.
// For the system menu title id, v must be one of the named releases in
// the lookup table (matched case-insensitively). For every other title
// id, v must be in "major.minor" form with both halves in 0..=255.
func Encode(titleID [8]byte, v string) (uint16, error) {
	if isSystemMenu(titleID) {
		for name, dec := range systemMenuVersions {
			if strings.EqualFold(name, v) {
				return dec, nil
			}
		}
		return 0, fmt.Errorf("%w: unrecognized system menu version %q", werr.ErrInvalidArgument, v)
	}
	parts := strings.Split(v, ".")
	if len(parts) != 2 {
		return 0, fmt.Errorf("%w: version must be in \"major.minor\" form, got %q", werr.ErrInvalidArgument, v)
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil || major < 0 || major > 255 {
		return 0, fmt.Errorf("%w: invalid major version %q", werr.ErrInvalidArgument, parts[0])
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil || minor < 0 || minor > 255 {
		return 0, fmt.Errorf("%w: invalid minor version %q", werr.ErrInvalidArgument, parts[1])
	}
	return uint16(major)<<8 | uint16(minor), nil
}

// Decode converts a decimal version back to its human-readable form. For
// the system menu title id, dec must exactly match an entry in the lookup
// table. For every other title id, it is rendered as "major.minor".
func Decode(titleID [8]byte, dec uint16) (string, error) {
	if isSystemMenu(titleID) {
		for name, v := range systemMenuVersions {
			if v == dec {
				return name, nil
			}
		}
		return "", fmt.Errorf("%w: unrecognized system menu version %d", werr.ErrInvalidArgument, dec)
	}
	return fmt.Sprintf("%d.%d", dec>>8, dec&0xFF), nil
}
