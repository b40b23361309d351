// Package ticket implements the signed entitlement document granting the
// right to decrypt a title's content (component 4.3): parsing, serializing,
// the title-key accessor, and the fakesign trick.
package ticket

import (
	"bytes"
	"crypto/sha1"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/ninjacheetah/gowiipkg/werr"
	"github.com/ninjacheetah/gowiipkg/wiicrypto"
)

// Size is the fixed on-disk length of a v0 ticket.
const Size = 0x2A4

// TitleLimit is one of the eight play-limit records trailing the ticket
// body: a limit type (0/3 = none, 1 = time limit in minutes, 4 = launch
// count) paired with its maximum usage value.
type TitleLimit struct {
	LimitType    uint32
	MaximumUsage uint32
}

// Ticket holds every field of a v0 ticket. Only format version 0 is
// supported; tickets with any other format version are rejected on load.
type Ticket struct {
	SignatureType uint32
	Signature     [256]byte

	Issuer string

	ECDHData [60]byte

	FormatVersion uint8

	TitleKeyEnc [16]byte

	TicketID       [8]byte
	ConsoleID      uint32
	TitleID        [8]byte
	Unknown1       [2]byte
	TitleVersion   uint16
	PermittedTitles [4]byte
	PermitMask      [4]byte

	TitleExportAllowed uint8
	CommonKeyIndex     wiicrypto.CommonKeyIndex

	Unknown2 [48]byte

	ContentAccessPermissions [64]byte

	TitleLimits [8]TitleLimit
}

// IsDev reports whether this ticket's issuer marks it as signed for a
// development unit, which selects the development common key instead of
// the retail one.
func (t *Ticket) IsDev() bool {
	return strings.Contains(t.Issuer, "Root-CA00000002-XS00000006") ||
		strings.Contains(t.Issuer, "Root-CA00000002-XS00000004")
}

// Load parses a ticket from its raw 0x2A4-byte representation.
func Load(data []byte) (*Ticket, error) {
	if len(data) < Size {
		return nil, fmt.Errorf("%w: ticket shorter than %d bytes", werr.ErrMalformedStructure, Size)
	}
	t := &Ticket{}
	t.SignatureType = binary.BigEndian.Uint32(data[0x0:0x4])
	copy(t.Signature[:], data[0x04:0x104])
	t.Issuer = strings.TrimRight(string(data[0x140:0x180]), "\x00")
	copy(t.ECDHData[:], data[0x180:0x1BC])
	t.FormatVersion = data[0x1BC]
	if t.FormatVersion != 0 {
		return nil, fmt.Errorf("%w: ticket format version %d is not supported", werr.ErrUnsupportedVersion, t.FormatVersion)
	}
	copy(t.TitleKeyEnc[:], data[0x1BF:0x1CF])
	copy(t.TicketID[:], data[0x1D0:0x1D8])
	t.ConsoleID = binary.BigEndian.Uint32(data[0x1D8:0x1DC])
	copy(t.TitleID[:], data[0x1DC:0x1E4])
	copy(t.Unknown1[:], data[0x1E4:0x1E6])
	t.TitleVersion = binary.BigEndian.Uint16(data[0x1E6:0x1E8])
	copy(t.PermittedTitles[:], data[0x1E8:0x1EC])
	copy(t.PermitMask[:], data[0x1EC:0x1F0])
	t.TitleExportAllowed = data[0x1F0]
	t.CommonKeyIndex = wiicrypto.CommonKeyIndex(data[0x1F1])
	copy(t.Unknown2[:], data[0x1F2:0x222])
	copy(t.ContentAccessPermissions[:], data[0x222:0x262])
	for i := 0; i < 8; i++ {
		off := 0x264 + i*8
		t.TitleLimits[i] = TitleLimit{
			LimitType:    binary.BigEndian.Uint32(data[off : off+4]),
			MaximumUsage: binary.BigEndian.Uint32(data[off+4 : off+8]),
		}
	}
	return t, nil
}

// Dump serializes the ticket back to its 0x2A4-byte on-disk representation.
func (t *Ticket) Dump() ([]byte, error) {
	var buf bytes.Buffer
	var tmp4 [4]byte
	binary.BigEndian.PutUint32(tmp4[:], t.SignatureType)
	buf.Write(tmp4[:])
	buf.Write(t.Signature[:])
	buf.Write(make([]byte, 0x140-0x04-256))
	issuer := make([]byte, 0x40)
	copy(issuer, t.Issuer)
	buf.Write(issuer)
	buf.Write(t.ECDHData[:])
	buf.WriteByte(t.FormatVersion)
	buf.Write(make([]byte, 2))
	buf.Write(t.TitleKeyEnc[:])
	buf.WriteByte(0)
	buf.Write(t.TicketID[:])
	binary.BigEndian.PutUint32(tmp4[:], t.ConsoleID)
	buf.Write(tmp4[:])
	buf.Write(t.TitleID[:])
	buf.Write(t.Unknown1[:])
	var tmp2 [2]byte
	binary.BigEndian.PutUint16(tmp2[:], t.TitleVersion)
	buf.Write(tmp2[:])
	buf.Write(t.PermittedTitles[:])
	buf.Write(t.PermitMask[:])
	buf.WriteByte(t.TitleExportAllowed)
	buf.WriteByte(byte(t.CommonKeyIndex))
	buf.Write(t.Unknown2[:])
	buf.Write(t.ContentAccessPermissions[:])
	buf.Write(make([]byte, 2))
	for _, limit := range t.TitleLimits {
		binary.BigEndian.PutUint32(tmp4[:], limit.LimitType)
		buf.Write(tmp4[:])
		binary.BigEndian.PutUint32(tmp4[:], limit.MaximumUsage)
		buf.Write(tmp4[:])
	}
	out := buf.Bytes()
	if len(out) != Size {
		return nil, fmt.Errorf("%w: serialized ticket is %d bytes, expected %d", werr.ErrMalformedStructure, len(out), Size)
	}
	return out, nil
}

// SignatureIssuer implements cert.Signed.
func (t *Ticket) SignatureIssuer() string { return t.Issuer }

// SignatureBytes implements cert.Signed.
func (t *Ticket) SignatureBytes() []byte { return t.Signature[:] }

// TitleKey decrypts the contained title key using the common key selected
// by CommonKeyIndex and IsDev.
func (t *Ticket) TitleKey() ([16]byte, error) {
	return wiicrypto.UnwrapTitleKey(t.TitleKeyEnc, t.CommonKeyIndex, t.TitleID, t.IsDev())
}

// SetTitleID sets the title id. Callers that also manage a title key must
// re-wrap it themselves, since the IV used for wrapping is derived from
// the title id; the facade in package title does this automatically.
func (t *Ticket) SetTitleID(id [8]byte) {
	t.TitleID = id
}

// SetTitleVersionInt sets the title version directly from a 0..=65535
// decimal value.
func (t *Ticket) SetTitleVersionInt(v int) error {
	if v < 0 || v > 65535 {
		return fmt.Errorf("%w: title version %d out of range 0..=65535", werr.ErrInvalidArgument, v)
	}
	t.TitleVersion = uint16(v)
	return nil
}

// SetTitleVersionString sets the title version from a "major.minor" string,
// with major and minor each restricted to 0..=255.
func (t *Ticket) SetTitleVersionString(v string) error {
	major, minor, err := parseMajorMinor(v)
	if err != nil {
		return err
	}
	t.TitleVersion = uint16(major)<<8 | uint16(minor)
	return nil
}

func parseMajorMinor(v string) (int, int, error) {
	parts := strings.Split(v, ".")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: version must be in \"major.minor\" form, got %q", werr.ErrInvalidArgument, v)
	}
	var major, minor int
	if _, err := fmt.Sscanf(parts[0], "%d", &major); err != nil {
		return 0, 0, fmt.Errorf("%w: invalid major version %q", werr.ErrInvalidArgument, parts[0])
	}
	if _, err := fmt.Sscanf(parts[1], "%d", &minor); err != nil {
		return 0, 0, fmt.Errorf("%w: invalid minor version %q", werr.ErrInvalidArgument, parts[1])
	}
	if major > 255 || minor > 255 || major < 0 || minor < 0 {
		return 0, 0, fmt.Errorf("%w: version %q exceeds v255.255", werr.ErrInvalidArgument, v)
	}
	return major, minor, nil
}

// Fakesign mutates this ticket in place for the trucha-bug exploit:
// zeroing the signature and brute-forcing the first two bytes of Unknown2
// as a big-endian counter until the SHA-1 of the body (offset 320 onward)
// begins with a zero byte.
func (t *Ticket) Fakesign() error {
	t.Signature = [256]byte{}
	for counter := 0; counter <= 0xFFFF; counter++ {
		binary.BigEndian.PutUint16(t.Unknown2[:2], uint16(counter))
		dump, err := t.Dump()
		if err != nil {
			return err
		}
		digest := sha1.Sum(dump[320:])
		if digest[0] == 0x00 {
			return nil
		}
	}
	return werr.ErrFakesignExhausted
}

// IsFakesigned reports whether this ticket is currently fakesigned: an
// all-zero signature whose body hash begins with a zero byte.
func (t *Ticket) IsFakesigned() bool {
	if t.Signature != ([256]byte{}) {
		return false
	}
	dump, err := t.Dump()
	if err != nil {
		return false
	}
	digest := sha1.Sum(dump[320:])
	return digest[0] == 0x00
}
