// Package wadpkg implements the installable package container (component
// 4.6, historically called a "WAD"): a 64-byte header describing six
// variable-length sections, each aligned up to 64 bytes.
package wadpkg

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/ninjacheetah/gowiipkg/werr"
)

// Type distinguishes a normal installable package from a boot-chain one.
type Type [2]byte

var (
	TypeNormal Type = [2]byte{'I', 's'}
	TypeBoot   Type = [2]byte{'i', 'b'}
)

const headerLength = 0x20

// Package holds the six raw section blobs making up a package, in their
// on-disk order.
type Package struct {
	Type       Type
	Version    uint16
	CertChain  []byte
	Revocation []byte
	Ticket     []byte
	Metadata   []byte
	Content    []byte
	Footer     []byte
}

func alignUp64(n int) int {
	if n%64 == 0 {
		return n
	}
	return n + (64 - n%64)
}

// Load parses a package from its raw representation.
func Load(data []byte) (*Package, error) {
	if len(data) < headerLength {
		return nil, fmt.Errorf("%w: package shorter than its header", werr.ErrMalformedStructure)
	}
	if binary.BigEndian.Uint32(data[0:4]) != headerLength {
		return nil, fmt.Errorf("%w: header length field is not %#x", werr.ErrInvalidMagic, headerLength)
	}
	var typ Type
	copy(typ[:], data[4:6])
	if typ != TypeNormal && typ != TypeBoot {
		return nil, fmt.Errorf("%w: unrecognized package type %q", werr.ErrInvalidMagic, typ[:])
	}
	version := binary.BigEndian.Uint16(data[6:8])

	sizes := make([]uint32, 6)
	for i := 0; i < 6; i++ {
		off := 8 + i*4
		sizes[i] = binary.BigEndian.Uint32(data[off : off+4])
	}

	sections := make([][]byte, 6)
	offset := alignUp64(headerLength)
	for i, size := range sizes {
		if offset+int(size) > len(data) {
			return nil, fmt.Errorf("%w: section %d extends past end of package", werr.ErrMalformedStructure, i)
		}
		sections[i] = append([]byte(nil), data[offset:offset+int(size)]...)
		offset = alignUp64(offset + int(size))
	}

	return &Package{
		Type:       typ,
		Version:    version,
		CertChain:  sections[0],
		Revocation: sections[1],
		Ticket:     sections[2],
		Metadata:   sections[3],
		Content:    sections[4],
		Footer:     sections[5],
	}, nil
}

// Dump serializes the package back to its on-disk representation: the
// header followed by each section in declared order, every section
// (including the header itself) padded up to the next 64-byte boundary.
func (p *Package) Dump() ([]byte, error) {
	sections := [][]byte{p.CertChain, p.Revocation, p.Ticket, p.Metadata, p.Content, p.Footer}

	var buf bytes.Buffer
	var tmp4 [4]byte
	binary.BigEndian.PutUint32(tmp4[:], headerLength)
	buf.Write(tmp4[:])
	buf.Write(p.Type[:])
	var tmp2 [2]byte
	binary.BigEndian.PutUint16(tmp2[:], p.Version)
	buf.Write(tmp2[:])
	for _, s := range sections {
		binary.BigEndian.PutUint32(tmp4[:], uint32(len(s)))
		buf.Write(tmp4[:])
	}
	if pad := buf.Len() % 64; pad != 0 {
		buf.Write(make([]byte, 64-pad))
	}
	for _, s := range sections {
		buf.Write(s)
		if pad := buf.Len() % 64; pad != 0 {
			buf.Write(make([]byte, 64-pad))
		}
	}
	return buf.Bytes(), nil
}
