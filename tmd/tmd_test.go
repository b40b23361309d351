package tmd

import (
	"bytes"
	"crypto/sha1"
	"testing"
)

func sampleMetadata() *Metadata {
	return &Metadata{
		SignatureType: 0x00010001,
		Issuer:        "Root-CA00000001-CP00000004",
		FormatVersion: 0,
		TitleID:       [8]byte{0x00, 0x01, 0x00, 0x02, 0x00, 0x00, 0x00, 0x01},
		GroupID:       0x3031,
		Region:        RegionUSA,
		TitleVersion:  513,
		ContentRecords: []ContentRecord{
			{ContentID: 0, Index: 0, Type: ContentNormal, Size: 100, Hash: sha1.Sum([]byte("a"))},
			{ContentID: 1, Index: 1, Type: ContentShared, Size: 200, Hash: sha1.Sum([]byte("b"))},
		},
	}
}

func TestMetadataDumpLoadRoundTrip(t *testing.T) {
	orig := sampleMetadata()
	dumped, err := orig.Dump()
	if err != nil {
		t.Fatalf("Dump: %v", err)
	}
	loaded, err := Load(dumped)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	redumped, err := loaded.Dump()
	if err != nil {
		t.Fatalf("re-Dump: %v", err)
	}
	if !bytes.Equal(dumped, redumped) {
		t.Error("load(dump(m)) did not round trip byte-identically")
	}
	if len(loaded.ContentRecords) != 2 {
		t.Fatalf("got %d content records, want 2", len(loaded.ContentRecords))
	}
	if loaded.ContentRecords[0].Size != 100 || loaded.ContentRecords[1].Type != ContentShared {
		t.Errorf("content record mismatch after round trip: %+v", loaded.ContentRecords)
	}
}

func TestMetadataWithZeroContentRecordsRoundTrips(t *testing.T) {
	orig := sampleMetadata()
	orig.ContentRecords = nil
	dumped, err := orig.Dump()
	if err != nil {
		t.Fatalf("Dump: %v", err)
	}
	loaded, err := Load(dumped)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.ContentRecords) != 0 {
		t.Errorf("got %d content records, want 0", len(loaded.ContentRecords))
	}
}

func TestFakesignProducesZeroSignatureAndLeadingZeroHash(t *testing.T) {
	m := sampleMetadata()
	if err := m.Fakesign(); err != nil {
		t.Fatalf("Fakesign: %v", err)
	}
	if m.Signature != ([256]byte{}) {
		t.Error("signature was not zeroed by Fakesign")
	}
	dumped, err := m.Dump()
	if err != nil {
		t.Fatalf("Dump: %v", err)
	}
	digest := sha1.Sum(dumped[320:])
	if digest[0] != 0x00 {
		t.Errorf("body hash after fakesign starts with %#x, want 0x00", digest[0])
	}
	if !m.IsFakesigned() {
		t.Error("IsFakesigned returned false right after Fakesign")
	}
}

func TestTitleKindClassification(t *testing.T) {
	cases := []struct {
		titleID [8]byte
		want    TitleKind
	}{
		{[8]byte{0x00, 0x00, 0x00, 0x01, 0, 0, 0, 2}, KindSystem},
		{[8]byte{0x00, 0x01, 0x00, 0x00, 0, 0, 0, 0}, KindGame},
		{[8]byte{0x00, 0x01, 0x00, 0x01, 0, 0, 0, 0}, KindChannel},
		{[8]byte{0xFF, 0xFF, 0xFF, 0xFF, 0, 0, 0, 0}, KindUnknown},
	}
	for _, c := range cases {
		m := &Metadata{TitleID: c.titleID}
		if got := m.TitleKind(); got != c.want {
			t.Errorf("TitleKind(%x) = %s, want %s", c.titleID, got, c.want)
		}
	}
}

func TestAccessRightBit(t *testing.T) {
	m := &Metadata{AccessRights: 0b101}
	if !m.AccessRight(0) || m.AccessRight(1) || !m.AccessRight(2) {
		t.Error("AccessRight did not correctly test individual bits")
	}
}
