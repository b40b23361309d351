package title

import (
	"testing"

	"github.com/ninjacheetah/gowiipkg/cert"
	"github.com/ninjacheetah/gowiipkg/content"
	"github.com/ninjacheetah/gowiipkg/tmd"
	"github.com/ninjacheetah/gowiipkg/wiicrypto"

	"github.com/ninjacheetah/gowiipkg/ticket"
)

func makeCert(typ cert.SigType, issuer string, keyType cert.KeyType, childName string) *cert.Certificate {
	sl, _ := sigLen(typ)
	kl, _ := keyLen(keyType)
	return &cert.Certificate{
		Type:          typ,
		Signature:     make([]byte, sl),
		Issuer:        issuer,
		PubKeyType:    keyType,
		ChildName:     childName,
		PubKeyID:      1,
		PubKeyModulus: make([]byte, kl),
		PubKeyExp:     0x10001,
	}
}

// sigLen/keyLen mirror cert's unexported length tables just enough to size
// placeholder signatures/moduli for test fixtures.
func sigLen(t cert.SigType) (int, error) {
	switch t {
	case cert.SigRSA2048:
		return 0x100, nil
	default:
		return 0x200, nil
	}
}

func keyLen(t cert.KeyType) (int, error) {
	switch t {
	case cert.KeyRSA2048:
		return 0x100, nil
	default:
		return 0x200, nil
	}
}

func sampleTitle(t *testing.T) *Title {
	titleID := [8]byte{0x00, 0x01, 0x00, 0x02, 0x00, 0x00, 0x00, 0x01}
	key := [16]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	wrapped, err := wiicrypto.WrapTitleKey(key, wiicrypto.CommonKeyRetail, titleID, false)
	if err != nil {
		t.Fatalf("WrapTitleKey: %v", err)
	}

	tik := &ticket.Ticket{
		SignatureType:  0x00010001,
		Issuer:         "Root-CA00000001-XS00000003",
		TitleKeyEnc:    wrapped,
		TitleID:        titleID,
		TitleVersion:   513,
		CommonKeyIndex: wiicrypto.CommonKeyRetail,
	}
	meta := &tmd.Metadata{
		SignatureType: 0x00010001,
		Issuer:        "Root-CA00000001-CP00000004",
		TitleID:       titleID,
		TitleVersion:  513,
	}
	region := &content.Region{}
	if err := region.AddContent([]byte("hello world"), 0, 0, tmd.ContentNormal, key); err != nil {
		t.Fatalf("AddContent: %v", err)
	}
	meta.ContentRecords = region.Records()

	chain := &cert.Chain{
		CA:     makeCert(cert.SigRSA2048, "Root", cert.KeyRSA2048, "CA00000001"),
		Meta:   makeCert(cert.SigRSA2048, "Root-CA00000001", cert.KeyRSA2048, "CP00000004"),
		Ticket: makeCert(cert.SigRSA2048, "Root-CA00000001", cert.KeyRSA2048, "XS00000003"),
	}

	return &Title{Certs: chain, Ticket: tik, Metadata: meta, Content: region}
}

func TestDumpPackageLoadPackageRoundTrip(t *testing.T) {
	orig := sampleTitle(t)
	dumped, err := orig.DumpPackage()
	if err != nil {
		t.Fatalf("DumpPackage: %v", err)
	}
	loaded, err := LoadPackage(dumped)
	if err != nil {
		t.Fatalf("LoadPackage: %v", err)
	}
	if loaded.Metadata.TitleID != orig.Metadata.TitleID {
		t.Errorf("title id mismatch after round trip: got %x, want %x", loaded.Metadata.TitleID, orig.Metadata.TitleID)
	}
	dec, err := loaded.GetContentByIndex(0, false)
	if err != nil {
		t.Fatalf("GetContentByIndex: %v", err)
	}
	if string(dec) != "hello world" {
		t.Errorf("content 0 = %q, want \"hello world\"", dec)
	}
}

func TestLoadPackageRejectsTitleIDMismatch(t *testing.T) {
	orig := sampleTitle(t)
	orig.Ticket.TitleID = [8]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
	dumped, err := orig.DumpPackage()
	if err != nil {
		t.Fatalf("DumpPackage: %v", err)
	}
	if _, err := LoadPackage(dumped); err == nil {
		t.Error("expected an error loading a package whose ticket/metadata title ids disagree, got nil")
	}
}

func TestSetTitleIDRewrapsTitleKey(t *testing.T) {
	orig := sampleTitle(t)
	keyBefore, err := orig.TitleKey()
	if err != nil {
		t.Fatalf("TitleKey: %v", err)
	}
	newID := [8]byte{0x00, 0x01, 0x00, 0x02, 0xAA, 0xBB, 0xCC, 0xDD}
	if err := orig.SetTitleID(newID); err != nil {
		t.Fatalf("SetTitleID: %v", err)
	}
	if orig.Metadata.TitleID != newID || orig.Ticket.TitleID != newID {
		t.Error("SetTitleID did not update both metadata and ticket")
	}
	keyAfter, err := orig.TitleKey()
	if err != nil {
		t.Fatalf("TitleKey after SetTitleID: %v", err)
	}
	if keyAfter != keyBefore {
		t.Errorf("decrypted title key changed after SetTitleID: got %x, want %x", keyAfter, keyBefore)
	}
}

func TestInstalledSizeIncludesMetadataAndTicket(t *testing.T) {
	title := sampleTitle(t)
	metaData, err := title.Metadata.Dump()
	if err != nil {
		t.Fatalf("Metadata.Dump: %v", err)
	}
	tikData, err := title.Ticket.Dump()
	if err != nil {
		t.Fatalf("Ticket.Dump: %v", err)
	}
	want := uint64(len("hello world")) + uint64(len(metaData)) + uint64(len(tikData))
	got := title.InstalledSize(true)
	if got != want {
		t.Errorf("InstalledSize(true) = %d, want %d", got, want)
	}
}

func TestInstalledSizeBlocksRoundsUp(t *testing.T) {
	title := sampleTitle(t)
	size := title.InstalledSize(true)
	blocks := title.InstalledSizeBlocks(true)
	wantBlocks := size / installBlockSize
	if size%installBlockSize != 0 {
		wantBlocks++
	}
	if blocks != wantBlocks {
		t.Errorf("InstalledSizeBlocks = %d, want %d", blocks, wantBlocks)
	}
}

func TestFakesignFakesignsBothDocuments(t *testing.T) {
	title := sampleTitle(t)
	if err := title.Fakesign(); err != nil {
		t.Fatalf("Fakesign: %v", err)
	}
	if !title.IsFakesigned() {
		t.Error("IsFakesigned returned false right after Fakesign")
	}
}
