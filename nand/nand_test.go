package nand

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ninjacheetah/gowiipkg/cert"
	"github.com/ninjacheetah/gowiipkg/content"
	"github.com/ninjacheetah/gowiipkg/tmd"
	"github.com/ninjacheetah/gowiipkg/wiicrypto"

	"github.com/ninjacheetah/gowiipkg/ticket"
	wtitle "github.com/ninjacheetah/gowiipkg/title"
)

func certFixture(typ cert.SigType, issuer string, keyType cert.KeyType, childName string) *cert.Certificate {
	var sl, kl int
	if typ == cert.SigRSA2048 {
		sl = 0x100
	} else {
		sl = 0x200
	}
	if keyType == cert.KeyRSA2048 {
		kl = 0x100
	} else {
		kl = 0x200
	}
	return &cert.Certificate{
		Type: typ, Signature: make([]byte, sl), Issuer: issuer,
		PubKeyType: keyType, ChildName: childName, PubKeyID: 1,
		PubKeyModulus: make([]byte, kl), PubKeyExp: 0x10001,
	}
}

func sampleTitle(t *testing.T, titleID [8]byte) *wtitle.Title {
	key := [16]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	wrapped, err := wiicrypto.WrapTitleKey(key, wiicrypto.CommonKeyRetail, titleID, false)
	if err != nil {
		t.Fatalf("WrapTitleKey: %v", err)
	}
	tik := &ticket.Ticket{
		SignatureType: 0x00010001, Issuer: "Root-CA00000001-XS00000003",
		TitleKeyEnc: wrapped, TitleID: titleID, TitleVersion: 513,
		CommonKeyIndex: wiicrypto.CommonKeyRetail,
	}
	meta := &tmd.Metadata{
		SignatureType: 0x00010001, Issuer: "Root-CA00000001-CP00000004",
		TitleID: titleID, TitleVersion: 513,
	}
	region := &content.Region{}
	if err := region.AddContent([]byte("normal app"), 0, 0, tmd.ContentNormal, key); err != nil {
		t.Fatalf("AddContent normal: %v", err)
	}
	if err := region.AddContent([]byte("shared library"), 1, 1, tmd.ContentShared, key); err != nil {
		t.Fatalf("AddContent shared: %v", err)
	}
	meta.ContentRecords = region.Records()
	chain := &cert.Chain{
		CA:     certFixture(cert.SigRSA2048, "Root", cert.KeyRSA2048, "CA00000001"),
		Meta:   certFixture(cert.SigRSA2048, "Root-CA00000001", cert.KeyRSA2048, "CP00000004"),
		Ticket: certFixture(cert.SigRSA2048, "Root-CA00000001", cert.KeyRSA2048, "XS00000003"),
	}
	return &wtitle.Title{Certs: chain, Ticket: tik, Metadata: meta, Content: region}
}

func TestInstallWritesExpectedFiles(t *testing.T) {
	root := t.TempDir()
	n, err := New(root)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	titleID := [8]byte{0x00, 0x01, 0x00, 0x02, 0x00, 0x00, 0x00, 0x01}
	title := sampleTitle(t, titleID)

	if err := n.Install(title); err != nil {
		t.Fatalf("Install: %v", err)
	}

	high, low := titlePaths(titleID)
	contentDir := filepath.Join(root, "title", high, low, "content")

	if _, err := os.Stat(filepath.Join(contentDir, "title.tmd")); err != nil {
		t.Errorf("title.tmd not written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(contentDir, "00000000.app")); err != nil {
		t.Errorf("normal content not written: %v", err)
	}
	appData, err := os.ReadFile(filepath.Join(contentDir, "00000000.app"))
	if err != nil {
		t.Fatalf("reading installed content: %v", err)
	}
	if string(appData) != "normal app" {
		t.Errorf("installed content = %q, want \"normal app\"", appData)
	}
	if _, err := os.Stat(filepath.Join(root, "ticket", high, low+".tik")); err != nil {
		t.Errorf("ticket not written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "shared1", "content.map")); err != nil {
		t.Errorf("shared content map not written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "sys", "uid.sys")); err != nil {
		t.Errorf("uid.sys not written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "sys", "cert.sys")); err != nil {
		t.Errorf("cert.sys not written: %v", err)
	}
}

func TestUninstallRemovesContentButKeepsSharedAndData(t *testing.T) {
	root := t.TempDir()
	n, err := New(root)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	titleID := [8]byte{0x00, 0x01, 0x00, 0x02, 0x00, 0x00, 0x00, 0x01}
	title := sampleTitle(t, titleID)
	if err := n.Install(title); err != nil {
		t.Fatalf("Install: %v", err)
	}

	high, low := titlePaths(titleID)
	dataDir := filepath.Join(root, "title", high, low, "data")
	if err := os.WriteFile(filepath.Join(dataDir, "save.bin"), []byte("save"), 0o644); err != nil {
		t.Fatalf("writing save data: %v", err)
	}

	if err := n.Uninstall(titleID); err != nil {
		t.Fatalf("Uninstall: %v", err)
	}

	if _, err := os.Stat(filepath.Join(root, "title", high, low, "content")); !os.IsNotExist(err) {
		t.Errorf("content directory still exists after uninstall")
	}
	if _, err := os.Stat(filepath.Join(dataDir, "save.bin")); err != nil {
		t.Errorf("non-empty data directory was removed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "ticket", high, low+".tik")); !os.IsNotExist(err) {
		t.Error("ticket file still exists after uninstall")
	}
	if _, err := os.Stat(filepath.Join(root, "shared1", "content.map")); err != nil {
		t.Errorf("shared content map was removed by uninstall: %v", err)
	}
}

func TestAppendUIDAssignsIncrementalUIDs(t *testing.T) {
	root := t.TempDir()
	n, err := New(root)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	id1 := [8]byte{0x00, 0x01, 0x00, 0x02, 0x00, 0x00, 0x00, 0x01}
	id2 := [8]byte{0x00, 0x01, 0x00, 0x02, 0x00, 0x00, 0x00, 0x02}
	if err := n.appendUID(id1); err != nil {
		t.Fatalf("appendUID 1: %v", err)
	}
	if err := n.appendUID(id2); err != nil {
		t.Fatalf("appendUID 2: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(root, "sys", "uid.sys"))
	if err != nil {
		t.Fatalf("reading uid.sys: %v", err)
	}
	if len(data)%uidEntrySize != 0 || len(data) < uidEntrySize*3 {
		t.Fatalf("uid.sys has %d bytes, want at least %d (system menu + 2 titles)", len(data), uidEntrySize*3)
	}
	uid1 := uint16(data[uidEntrySize+10])<<8 | uint16(data[uidEntrySize+11])
	uid2 := uint16(data[2*uidEntrySize+10])<<8 | uint16(data[2*uidEntrySize+11])
	if uid1 != systemMenuUID+1 || uid2 != systemMenuUID+2 {
		t.Errorf("assigned uids %#x, %#x, want %#x, %#x", uid1, uid2, systemMenuUID+1, systemMenuUID+2)
	}
}
