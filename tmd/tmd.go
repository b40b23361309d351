// Package tmd implements title metadata (component 4.4): the signed
// document describing a title's contents, region, and access rights.
package tmd

import (
	"bytes"
	"crypto/sha1"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/ninjacheetah/gowiipkg/version"
	"github.com/ninjacheetah/gowiipkg/werr"
)

// Region is the title's region classification.
type Region uint16

const (
	RegionJapan Region = 0
	RegionUSA   Region = 1
	RegionEurope Region = 2
	RegionAny   Region = 3
	RegionKorea Region = 4
)

func (r Region) String() string {
	switch r {
	case RegionJapan:
		return "JPN"
	case RegionUSA:
		return "USA"
	case RegionEurope:
		return "EUR"
	case RegionAny:
		return "ANY"
	case RegionKorea:
		return "KOR"
	default:
		return "Unknown"
	}
}

// TitleKind classifies a title by the upper 32 bits of its title id.
type TitleKind string

const (
	KindSystem         TitleKind = "System"
	KindGame           TitleKind = "Game"
	KindChannel        TitleKind = "Channel"
	KindSystemChannel  TitleKind = "SystemChannel"
	KindGameChannel    TitleKind = "GameChannel"
	KindDLC            TitleKind = "DLC"
	KindHiddenChannel  TitleKind = "HiddenChannel"
	KindUnknown        TitleKind = "Unknown"
)

// ContentType classifies a content record's type bitmask.
type ContentType uint16

const (
	ContentNormal    ContentType = 0x0001
	ContentDevelopment ContentType = 0x0002
	ContentHashTree  ContentType = 0x0003
	ContentDLC       ContentType = 0x4001
	ContentShared    ContentType = 0x8001
)

// ContentRecord describes one entry of the content region: its content id,
// index within the region, type bitmask, declared decrypted size, and
// SHA-1 hash of the decrypted content.
type ContentRecord struct {
	ContentID uint32
	Index     uint16
	Type      ContentType
	Size      uint64
	Hash      [20]byte
}

// HeaderSize is the fixed length of the envelope and body, not counting the
// trailing content records.
const HeaderSize = 0x1E4

// Metadata holds every field of a TMD, plus its trailing content records.
type Metadata struct {
	SignatureType uint32
	Signature     [256]byte

	Issuer string

	FormatVersion  uint8
	CACRLVersion   uint8
	SignerCRLVersion uint8
	VWii           uint8

	IOSTitleID [8]byte
	TitleID    [8]byte
	TitleType  [4]byte

	GroupID uint16
	Region  Region

	AgeRatings [16]byte
	Reserved1  [12]byte
	IPCMask    [12]byte
	Reserved2  [18]byte

	AccessRights uint32
	TitleVersion uint16
	BootIndex    uint16
	MinorVersion uint16

	ContentRecords []ContentRecord
}

// Load parses a TMD from its raw representation.
func Load(data []byte) (*Metadata, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: metadata shorter than header", werr.ErrMalformedStructure)
	}
	m := &Metadata{}
	m.SignatureType = binary.BigEndian.Uint32(data[0x0:0x4])
	copy(m.Signature[:], data[0x04:0x104])
	m.Issuer = strings.TrimRight(string(data[0x140:0x180]), "\x00")
	m.FormatVersion = data[0x180]
	m.CACRLVersion = data[0x181]
	m.SignerCRLVersion = data[0x182]
	m.VWii = data[0x183]
	copy(m.IOSTitleID[:], data[0x184:0x18C])
	copy(m.TitleID[:], data[0x18C:0x194])
	copy(m.TitleType[:], data[0x194:0x198])
	m.GroupID = binary.BigEndian.Uint16(data[0x198:0x19A])
	m.Region = Region(binary.BigEndian.Uint16(data[0x19C:0x19E]))
	copy(m.AgeRatings[:], data[0x19E:0x1AE])
	copy(m.Reserved1[:], data[0x1AE:0x1BA])
	copy(m.IPCMask[:], data[0x1BA:0x1C6])
	copy(m.Reserved2[:], data[0x1C6:0x1D8])
	m.AccessRights = binary.BigEndian.Uint32(data[0x1D8:0x1DC])
	m.TitleVersion = binary.BigEndian.Uint16(data[0x1DC:0x1DE])
	numContents := binary.BigEndian.Uint16(data[0x1DE:0x1E0])
	m.BootIndex = binary.BigEndian.Uint16(data[0x1E0:0x1E2])
	m.MinorVersion = binary.BigEndian.Uint16(data[0x1E2:0x1E4])

	m.ContentRecords = make([]ContentRecord, numContents)
	for i := 0; i < int(numContents); i++ {
		off := HeaderSize + i*36
		if len(data) < off+36 {
			return nil, fmt.Errorf("%w: truncated content record %d", werr.ErrMalformedStructure, i)
		}
		rec := ContentRecord{
			ContentID: binary.BigEndian.Uint32(data[off : off+4]),
			Index:     binary.BigEndian.Uint16(data[off+4 : off+6]),
			Type:      ContentType(binary.BigEndian.Uint16(data[off+6 : off+8])),
			Size:      binary.BigEndian.Uint64(data[off+8 : off+16]),
		}
		copy(rec.Hash[:], data[off+16:off+36])
		m.ContentRecords[i] = rec
	}
	return m, nil
}

// Dump serializes the metadata back to its on-disk representation.
func (m *Metadata) Dump() ([]byte, error) {
	if len(m.ContentRecords) > 0xFFFF {
		return nil, fmt.Errorf("%w: too many content records (%d)", werr.ErrInvalidArgument, len(m.ContentRecords))
	}
	var buf bytes.Buffer
	var tmp4 [4]byte
	var tmp2 [2]byte
	binary.BigEndian.PutUint32(tmp4[:], m.SignatureType)
	buf.Write(tmp4[:])
	buf.Write(m.Signature[:])
	buf.Write(make([]byte, 60))
	issuer := make([]byte, 0x40)
	copy(issuer, m.Issuer)
	buf.Write(issuer)
	buf.WriteByte(m.FormatVersion)
	buf.WriteByte(m.CACRLVersion)
	buf.WriteByte(m.SignerCRLVersion)
	buf.WriteByte(m.VWii)
	buf.Write(m.IOSTitleID[:])
	buf.Write(m.TitleID[:])
	buf.Write(m.TitleType[:])
	binary.BigEndian.PutUint16(tmp2[:], m.GroupID)
	buf.Write(tmp2[:])
	buf.Write(make([]byte, 2))
	binary.BigEndian.PutUint16(tmp2[:], uint16(m.Region))
	buf.Write(tmp2[:])
	buf.Write(m.AgeRatings[:])
	buf.Write(m.Reserved1[:])
	buf.Write(m.IPCMask[:])
	buf.Write(m.Reserved2[:])
	binary.BigEndian.PutUint32(tmp4[:], m.AccessRights)
	buf.Write(tmp4[:])
	binary.BigEndian.PutUint16(tmp2[:], m.TitleVersion)
	buf.Write(tmp2[:])
	binary.BigEndian.PutUint16(tmp2[:], uint16(len(m.ContentRecords)))
	buf.Write(tmp2[:])
	binary.BigEndian.PutUint16(tmp2[:], m.BootIndex)
	buf.Write(tmp2[:])
	binary.BigEndian.PutUint16(tmp2[:], m.MinorVersion)
	buf.Write(tmp2[:])
	for _, rec := range m.ContentRecords {
		binary.BigEndian.PutUint32(tmp4[:], rec.ContentID)
		buf.Write(tmp4[:])
		binary.BigEndian.PutUint16(tmp2[:], rec.Index)
		buf.Write(tmp2[:])
		binary.BigEndian.PutUint16(tmp2[:], uint16(rec.Type))
		buf.Write(tmp2[:])
		var tmp8 [8]byte
		binary.BigEndian.PutUint64(tmp8[:], rec.Size)
		buf.Write(tmp8[:])
		buf.Write(rec.Hash[:])
	}
	out := buf.Bytes()
	want := HeaderSize + len(m.ContentRecords)*36
	if len(out) != want {
		return nil, fmt.Errorf("%w: serialized metadata is %d bytes, expected %d", werr.ErrMalformedStructure, len(out), want)
	}
	return out, nil
}

// SignatureIssuer implements cert.Signed.
func (m *Metadata) SignatureIssuer() string { return m.Issuer }

// SignatureBytes implements cert.Signed.
func (m *Metadata) SignatureBytes() []byte { return m.Signature[:] }

// RegionName returns the title's region classification.
func (m *Metadata) RegionName() Region { return m.Region }

// TitleKind classifies the title by the upper 32 bits of its title id.
func (m *Metadata) TitleKind() TitleKind {
	switch binary.BigEndian.Uint32(m.TitleID[:4]) {
	case 0x00000001:
		return KindSystem
	case 0x00010000:
		return KindGame
	case 0x00010001:
		return KindChannel
	case 0x00010002:
		return KindSystemChannel
	case 0x00010004:
		return KindGameChannel
	case 0x00010005:
		return KindDLC
	case 0x00010008:
		return KindHiddenChannel
	default:
		return KindUnknown
	}
}

// AccessRight tests a single bit of the 32-bit access-rights field.
func (m *Metadata) AccessRight(bit uint) bool {
	return m.AccessRights&(1<<bit) != 0
}

// SetTitleID sets the title id directly. Callers managing an associated
// ticket must re-wrap its title key, since the IV used for wrapping is
// derived from the title id; the facade in package title does this
// automatically.
func (m *Metadata) SetTitleID(id [8]byte) {
	m.TitleID = id
}

// SetTitleVersionInt sets the title version directly from a 0..=65535
// decimal value.
func (m *Metadata) SetTitleVersionInt(v int) error {
	if v < 0 || v > 65535 {
		return fmt.Errorf("%w: title version %d out of range 0..=65535", werr.ErrInvalidArgument, v)
	}
	m.TitleVersion = uint16(v)
	return nil
}

// SetTitleVersionString sets the title version from a "major.minor" string,
// or, for the system menu title id, from a named release string such as
// "4.3U" or "vWii-5.2.0U" via the version package's lookup table.
func (m *Metadata) SetTitleVersionString(v string) error {
	dec, err := version.Encode(m.TitleID, v)
	if err != nil {
		return err
	}
	m.TitleVersion = dec
	return nil
}

// ContentRecord returns the content record at the given index into the
// ContentRecords slice (not to be confused with a content id).
func (m *Metadata) ContentRecord(index int) (ContentRecord, error) {
	if index < 0 || index >= len(m.ContentRecords) {
		return ContentRecord{}, fmt.Errorf("%w: content record index %d, have %d records", werr.ErrNotFound, index, len(m.ContentRecords))
	}
	return m.ContentRecords[index], nil
}

// Fakesign mutates this metadata in place for the trucha-bug exploit:
// zeroing the signature and brute-forcing MinorVersion as a counter until
// the SHA-1 of the body (offset 320 onward) begins with a zero byte.
func (m *Metadata) Fakesign() error {
	m.Signature = [256]byte{}
	for counter := 0; counter <= 0xFFFF; counter++ {
		m.MinorVersion = uint16(counter)
		dump, err := m.Dump()
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

// IsFakesigned reports whether this metadata is currently fakesigned: an
// all-zero signature whose body hash begins with a zero byte.
func (m *Metadata) IsFakesigned() bool {
	if m.Signature != ([256]byte{}) {
		return false
	}
	dump, err := m.Dump()
	if err != nil {
		return false
	}
	digest := sha1.Sum(dump[320:])
	return digest[0] == 0x00
}
