package content

import (
	"bytes"
	"testing"

	"github.com/ninjacheetah/gowiipkg/tmd"
)

var testKey = [16]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}

func TestAddGetRoundTripVariousSizes(t *testing.T) {
	for _, size := range []int{0, 15, 16, 17, 100} {
		r := &Region{}
		data := bytes.Repeat([]byte{0x42}, size)
		if err := r.AddContent(data, 0, 0, tmd.ContentNormal, testKey); err != nil {
			t.Fatalf("size %d: AddContent: %v", size, err)
		}
		got, err := r.GetByIndex(0, testKey, false)
		if err != nil {
			t.Fatalf("size %d: GetByIndex: %v", size, err)
		}
		if !bytes.Equal(got, data) {
			t.Errorf("size %d: round trip mismatch: got %x, want %x", size, got, data)
		}
	}
}

func TestRegionDumpLoadRoundTrip(t *testing.T) {
	r := &Region{}
	if err := r.AddContent([]byte("hello"), 0, 0, tmd.ContentNormal, testKey); err != nil {
		t.Fatalf("AddContent 0: %v", err)
	}
	if err := r.AddContent([]byte("world!!"), 1, 1, tmd.ContentShared, testKey); err != nil {
		t.Fatalf("AddContent 1: %v", err)
	}
	dumped, _, err := r.Dump()
	if err != nil {
		t.Fatalf("Dump: %v", err)
	}
	loaded, err := Load(dumped, r.Records())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	got0, err := loaded.GetByIndex(0, testKey, false)
	if err != nil {
		t.Fatalf("GetByIndex 0: %v", err)
	}
	if string(got0) != "hello" {
		t.Errorf("content 0 = %q, want \"hello\"", got0)
	}
}

func TestEmptyRegionRoundTrips(t *testing.T) {
	r := &Region{}
	dumped, size, err := r.Dump()
	if err != nil {
		t.Fatalf("Dump: %v", err)
	}
	if len(dumped) != 0 || size != 0 {
		t.Errorf("empty region produced %d bytes / size %d, want 0/0", len(dumped), size)
	}
	loaded, err := Load(dumped, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Entries) != 0 {
		t.Errorf("loaded %d entries from an empty region, want 0", len(loaded.Entries))
	}
}

func TestGetByIndexDetectsHashMismatch(t *testing.T) {
	r := &Region{}
	if err := r.AddContent([]byte("hello"), 0, 0, tmd.ContentNormal, testKey); err != nil {
		t.Fatalf("AddContent: %v", err)
	}
	r.Entries[0].Record.Hash[0] ^= 0xFF
	if _, err := r.GetByIndex(0, testKey, false); err == nil {
		t.Error("expected a hash mismatch error, got nil")
	}
	if _, err := r.GetByIndex(0, testKey, true); err != nil {
		t.Errorf("skipHash=true should bypass the mismatch, got error: %v", err)
	}
}

func TestAddContentRejectsDuplicateIndexOrCid(t *testing.T) {
	r := &Region{}
	if err := r.AddContent([]byte("a"), 0, 0, tmd.ContentNormal, testKey); err != nil {
		t.Fatalf("AddContent: %v", err)
	}
	if err := r.AddContent([]byte("b"), 0, 1, tmd.ContentNormal, testKey); err == nil {
		t.Error("expected an error adding a duplicate content id, got nil")
	}
	if err := r.AddContent([]byte("b"), 1, 0, tmd.ContentNormal, testKey); err == nil {
		t.Error("expected an error adding a duplicate content index, got nil")
	}
}

func TestRemoveByIndexAndCid(t *testing.T) {
	r := &Region{}
	if err := r.AddContent([]byte("a"), 0, 0, tmd.ContentNormal, testKey); err != nil {
		t.Fatalf("AddContent: %v", err)
	}
	if err := r.AddContent([]byte("b"), 1, 1, tmd.ContentNormal, testKey); err != nil {
		t.Fatalf("AddContent: %v", err)
	}
	if err := r.RemoveByIndex(0); err != nil {
		t.Fatalf("RemoveByIndex: %v", err)
	}
	if len(r.Entries) != 1 {
		t.Fatalf("got %d entries after removing one of two, want 1", len(r.Entries))
	}
	if err := r.RemoveByCid(1); err != nil {
		t.Fatalf("RemoveByCid: %v", err)
	}
	if len(r.Entries) != 0 {
		t.Errorf("got %d entries after removing the rest, want 0", len(r.Entries))
	}
}

func TestSharedMapDumpLoadRoundTrip(t *testing.T) {
	m := &SharedMap{}
	id1 := m.AddContent([20]byte{1})
	id2 := m.AddContent([20]byte{2})
	if id1 == id2 {
		t.Fatalf("AddContent produced duplicate ids: %s, %s", id1, id2)
	}
	dumped := m.Dump()
	loaded, err := LoadSharedMap(dumped)
	if err != nil {
		t.Fatalf("LoadSharedMap: %v", err)
	}
	if len(loaded.Records) != 2 {
		t.Fatalf("got %d records, want 2", len(loaded.Records))
	}
	if loaded.Records[0].SharedID != id1 || loaded.Records[1].SharedID != id2 {
		t.Errorf("shared ids did not round trip: got %+v", loaded.Records)
	}
}
