// Package content implements the content region (component 4.5): the
// ordered sequence of encrypted content blobs that follows a title's
// metadata and ticket inside a package.
package content

import (
	"bytes"
	"crypto/sha1"
	"fmt"

	"github.com/ninjacheetah/gowiipkg/tmd"
	"github.com/ninjacheetah/gowiipkg/werr"
	"github.com/ninjacheetah/gowiipkg/wiicrypto"
)

func alignUp64(n uint64) uint64 {
	if n%64 == 0 {
		return n
	}
	return n + (64 - n%64)
}

func alignUp16(n int) int {
	if n%16 == 0 {
		return n
	}
	return n + (16 - n%16)
}

// Entry pairs a content record with the encrypted blob it describes, kept
// together so the two never drift out of sync with each other the way a
// pair of parallel slices indexed separately could.
type Entry struct {
	Record tmd.ContentRecord
	Blob   []byte // encrypted, exactly round_up(Record.Size, 16) bytes
}

// Region is the ordered collection of content entries making up a
// package's content region.
type Region struct {
	Entries []Entry
}

// Load parses the raw content region, using records to know each blob's
// declared size and where it starts. Records must be given in the same
// order they appear in the region (as in a title's metadata).
func Load(data []byte, records []tmd.ContentRecord) (*Region, error) {
	r := &Region{Entries: make([]Entry, len(records))}
	offset := uint64(0)
	for i, rec := range records {
		readLen := alignUp16(int(rec.Size))
		if offset+uint64(readLen) > uint64(len(data)) {
			return nil, fmt.Errorf("%w: content region truncated at entry %d", werr.ErrMalformedStructure, i)
		}
		blob := append([]byte(nil), data[offset:offset+uint64(readLen)]...)
		r.Entries[i] = Entry{Record: rec, Blob: blob}
		offset += alignUp64(rec.Size)
	}
	return r, nil
}

// Dump reassembles the content region, padding every blob but the last up
// to the next 64-byte boundary. It returns the serialized bytes and the
// logical content region size (the sum of each blob's size aligned to 64,
// except the last, which isn't).
func (r *Region) Dump() ([]byte, uint64, error) {
	var buf bytes.Buffer
	for i, e := range r.Entries {
		if i > 0 {
			if pad := buf.Len() % 64; pad != 0 {
				buf.Write(make([]byte, 64-pad))
			}
		}
		buf.Write(e.Blob)
		if pad := len(e.Blob) % 16; pad != 0 {
			buf.Write(make([]byte, 16-pad))
		}
	}
	var size uint64
	for i, e := range r.Entries {
		if i == len(r.Entries)-1 {
			size += e.Record.Size
		} else {
			size += alignUp64(e.Record.Size)
		}
	}
	return buf.Bytes(), size, nil
}

func (r *Region) indexOfContentIndex(index uint16) (int, error) {
	for i, e := range r.Entries {
		if e.Record.Index == index {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: no content with index %d", werr.ErrNotFound, index)
}

func (r *Region) indexOfCid(cid uint32) (int, error) {
	for i, e := range r.Entries {
		if e.Record.ContentID == cid {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: no content with id %d", werr.ErrNotFound, cid)
}

// GetEncByIndex returns the raw encrypted blob for the content whose
// record index (not array position) matches index.
func (r *Region) GetEncByIndex(index uint16) ([]byte, error) {
	i, err := r.indexOfContentIndex(index)
	if err != nil {
		return nil, err
	}
	return r.Entries[i].Blob, nil
}

// GetEncByCid returns the raw encrypted blob for the content with the
// given content id.
func (r *Region) GetEncByCid(cid uint32) ([]byte, error) {
	i, err := r.indexOfCid(cid)
	if err != nil {
		return nil, err
	}
	return r.Entries[i].Blob, nil
}

// GetByIndex returns the decrypted content whose record index matches
// index, verifying its SHA-1 against the content record unless skipHash
// is set.
func (r *Region) GetByIndex(index uint16, titleKey [16]byte, skipHash bool) ([]byte, error) {
	i, err := r.indexOfContentIndex(index)
	if err != nil {
		return nil, err
	}
	e := r.Entries[i]
	dec, err := wiicrypto.DecryptContent(e.Blob, titleKey, index, e.Record.Size)
	if err != nil {
		return nil, err
	}
	if !skipHash {
		digest := sha1.Sum(dec)
		if digest != e.Record.Hash {
			return nil, fmt.Errorf("%w: content index %d decrypted hash does not match its record", werr.ErrHashMismatch, index)
		}
	}
	return dec, nil
}

// GetByCid returns the decrypted content with the given content id.
func (r *Region) GetByCid(cid uint32, titleKey [16]byte, skipHash bool) ([]byte, error) {
	i, err := r.indexOfCid(cid)
	if err != nil {
		return nil, err
	}
	return r.GetByIndex(r.Entries[i].Record.Index, titleKey, skipHash)
}

// GetAll returns every content in the region, decrypted, in record order.
func (r *Region) GetAll(titleKey [16]byte, skipHash bool) ([][]byte, error) {
	out := make([][]byte, len(r.Entries))
	for i, e := range r.Entries {
		dec, err := r.GetByIndex(e.Record.Index, titleKey, skipHash)
		if err != nil {
			return nil, err
		}
		out[i] = dec
	}
	return out, nil
}

// AddEncContent appends a new entry built from an already-encrypted blob
// plus an explicit record. cid and the record's Index must be unique
// within the region.
func (r *Region) AddEncContent(enc []byte, rec tmd.ContentRecord) error {
	for _, e := range r.Entries {
		if e.Record.ContentID == rec.ContentID {
			return fmt.Errorf("%w: content id %d already exists", werr.ErrInvalidArgument, rec.ContentID)
		}
		if e.Record.Index == rec.Index {
			return fmt.Errorf("%w: content index %d already exists", werr.ErrInvalidArgument, rec.Index)
		}
	}
	r.Entries = append(r.Entries, Entry{Record: rec, Blob: append([]byte(nil), enc...)})
	return nil
}

// AddContent encrypts dec under titleKey and appends it as a new entry,
// computing its size and hash automatically.
func (r *Region) AddContent(dec []byte, cid uint32, index uint16, ctype tmd.ContentType, titleKey [16]byte) error {
	enc, err := wiicrypto.EncryptContent(dec, titleKey, index)
	if err != nil {
		return err
	}
	rec := tmd.ContentRecord{
		ContentID: cid,
		Index:     index,
		Type:      ctype,
		Size:      uint64(len(dec)),
		Hash:      sha1.Sum(dec),
	}
	return r.AddEncContent(enc, rec)
}

// SetEncContent replaces the encrypted blob and declared size/hash for the
// content at the given content index, optionally also updating its
// content id and type.
func (r *Region) SetEncContent(enc []byte, index uint16, size uint64, hash [20]byte, cid *uint32, ctype *tmd.ContentType) error {
	i, err := r.indexOfContentIndex(index)
	if err != nil {
		return err
	}
	r.Entries[i].Record.Size = size
	r.Entries[i].Record.Hash = hash
	if cid != nil {
		r.Entries[i].Record.ContentID = *cid
	}
	if ctype != nil {
		r.Entries[i].Record.Type = *ctype
	}
	r.Entries[i].Blob = append([]byte(nil), enc...)
	return nil
}

// SetContent encrypts dec under titleKey and replaces the content at the
// given content index with it.
func (r *Region) SetContent(dec []byte, index uint16, titleKey [16]byte, cid *uint32, ctype *tmd.ContentType) error {
	enc, err := wiicrypto.EncryptContent(dec, titleKey, index)
	if err != nil {
		return err
	}
	hash := sha1.Sum(dec)
	return r.SetEncContent(enc, index, uint64(len(dec)), hash, cid, ctype)
}

// LoadEncContent replaces the blob at the given content index without
// touching its record, on the assumption the caller knows it matches.
func (r *Region) LoadEncContent(enc []byte, index uint16) error {
	i, err := r.indexOfContentIndex(index)
	if err != nil {
		return err
	}
	r.Entries[i].Blob = append([]byte(nil), enc...)
	return nil
}

// LoadContent encrypts dec under titleKey and loads it at the given
// content index, first verifying dec's hash against the existing record.
func (r *Region) LoadContent(dec []byte, index uint16, titleKey [16]byte) error {
	i, err := r.indexOfContentIndex(index)
	if err != nil {
		return err
	}
	digest := sha1.Sum(dec)
	if digest != r.Entries[i].Record.Hash {
		return fmt.Errorf("%w: content does not match the record at index %d", werr.ErrHashMismatch, index)
	}
	enc, err := wiicrypto.EncryptContent(dec, titleKey, index)
	if err != nil {
		return err
	}
	r.Entries[i].Blob = enc
	return nil
}

// RemoveByIndex removes the entry with the given content index.
func (r *Region) RemoveByIndex(index uint16) error {
	i, err := r.indexOfContentIndex(index)
	if err != nil {
		return err
	}
	r.Entries = append(r.Entries[:i], r.Entries[i+1:]...)
	return nil
}

// RemoveByCid removes the entry with the given content id.
func (r *Region) RemoveByCid(cid uint32) error {
	i, err := r.indexOfCid(cid)
	if err != nil {
		return err
	}
	r.Entries = append(r.Entries[:i], r.Entries[i+1:]...)
	return nil
}

// Records returns the content records in region order, for syncing back
// into a title's metadata.
func (r *Region) Records() []tmd.ContentRecord {
	out := make([]tmd.ContentRecord, len(r.Entries))
	for i, e := range r.Entries {
		out[i] = e.Record
	}
	return out
}

// SharedRecord is one entry of the shared-content map (/shared1/content.map
// on the emulated NAND): an incremental hex id paired with the SHA-1 hash
// of the shared content it names.
type SharedRecord struct {
	SharedID string // 8 hex digits, e.g. "000000AB"
	Hash     [20]byte
}

// SharedMap parses and edits the shared-content map.
type SharedMap struct {
	Records []SharedRecord
}

const sharedRecordSize = 28

// LoadSharedMap parses a raw content.map file.
func LoadSharedMap(data []byte) (*SharedMap, error) {
	if len(data)%sharedRecordSize != 0 {
		return nil, fmt.Errorf("%w: content map length %d is not a multiple of %d", werr.ErrMalformedStructure, len(data), sharedRecordSize)
	}
	m := &SharedMap{}
	for off := 0; off < len(data); off += sharedRecordSize {
		rec := SharedRecord{SharedID: string(data[off : off+8])}
		copy(rec.Hash[:], data[off+8:off+28])
		m.Records = append(m.Records, rec)
	}
	return m, nil
}

// Dump serializes the shared-content map back to its on-disk form.
func (m *SharedMap) Dump() []byte {
	out := make([]byte, 0, len(m.Records)*sharedRecordSize)
	for _, rec := range m.Records {
		idBytes := make([]byte, 8)
		copy(idBytes, rec.SharedID)
		out = append(out, idBytes...)
		out = append(out, rec.Hash[:]...)
	}
	return out
}

// AddContent assigns the next incremental shared id to hash and appends a
// record for it, returning the assigned id.
func (m *SharedMap) AddContent(hash [20]byte) string {
	nextIndex := 0
	if len(m.Records) > 0 {
		last := m.Records[len(m.Records)-1]
		var prev int
		fmt.Sscanf(last.SharedID, "%08X", &prev)
		nextIndex = prev + 1
	}
	id := fmt.Sprintf("%08X", nextIndex)
	m.Records = append(m.Records, SharedRecord{SharedID: id, Hash: hash})
	return id
}
