package iospatcher

import (
	"bytes"
	"testing"

	"github.com/ninjacheetah/gowiipkg/cert"
	"github.com/ninjacheetah/gowiipkg/content"
	"github.com/ninjacheetah/gowiipkg/tmd"
	"github.com/ninjacheetah/gowiipkg/wiicrypto"

	"github.com/ninjacheetah/gowiipkg/ticket"
	"github.com/ninjacheetah/gowiipkg/title"
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

func iosTitleWithESContent(t *testing.T, esBody []byte) *title.Title {
	titleID := [8]byte{0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x1E} // IOS 30
	key := [16]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	wrapped, err := wiicrypto.WrapTitleKey(key, wiicrypto.CommonKeyRetail, titleID, false)
	if err != nil {
		t.Fatalf("WrapTitleKey: %v", err)
	}
	tik := &ticket.Ticket{
		SignatureType: 0x00010001, Issuer: "Root-CA00000001-XS00000003",
		TitleKeyEnc: wrapped, TitleID: titleID, TitleVersion: 3082,
		CommonKeyIndex: wiicrypto.CommonKeyRetail,
	}
	meta := &tmd.Metadata{
		SignatureType: 0x00010001, Issuer: "Root-CA00000001-CP00000004",
		TitleID: titleID, TitleVersion: 3082,
	}
	region := &content.Region{}
	if err := region.AddContent(esBody, 0, 0, tmd.ContentNormal, key); err != nil {
		t.Fatalf("AddContent: %v", err)
	}
	meta.ContentRecords = region.Records()
	chain := &cert.Chain{
		CA:     certFixture(cert.SigRSA2048, "Root", cert.KeyRSA2048, "CA00000001"),
		Meta:   certFixture(cert.SigRSA2048, "Root-CA00000001", cert.KeyRSA2048, "CP00000004"),
		Ticket: certFixture(cert.SigRSA2048, "Root-CA00000001", cert.KeyRSA2048, "XS00000003"),
	}
	return &title.Title{Certs: chain, Ticket: tik, Metadata: meta, Content: region}
}

func sampleESModule() []byte {
	var body []byte
	body = append(body, []byte("some header ")...)
	body = append(body, []byte("ES:")...)
	body = append(body, []byte("more bytes")...)
	body = append(body, []byte{0x20, 0x07, 0x23, 0xA2}...)
	body = append(body, []byte{0x20, 0x07, 0x4B, 0x0B}...)
	body = append(body, []byte{0x28, 0x03, 0xD1, 0x23}...)
	body = append(body, []byte{0x42, 0x8B, 0xD0, 0x01, 0x25, 0x66}...)
	body = append(body, []byte{0xD2, 0x01, 0x4E, 0x56}...)
	return body
}

func TestLoadLocatesESModule(t *testing.T) {
	tt := iosTitleWithESContent(t, sampleESModule())
	p, err := Load(tt)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.ESModuleIndex != 0 {
		t.Errorf("ESModuleIndex = %d, want 0", p.ESModuleIndex)
	}
}

func TestLoadRejectsNonIOSTitle(t *testing.T) {
	tt := iosTitleWithESContent(t, sampleESModule())
	tt.Metadata.TitleID = [8]byte{0x00, 0x01, 0x00, 0x02, 0x00, 0x00, 0x00, 0x01}
	tt.Ticket.TitleID = tt.Metadata.TitleID
	if _, err := Load(tt); err == nil {
		t.Error("expected an error loading a non-IOS title, got nil")
	}
}

func TestLoadRejectsSystemMenuAndBoot2(t *testing.T) {
	for _, low := range [][4]byte{{0, 0, 0, 1}, {0, 0, 0, 2}} {
		tt := iosTitleWithESContent(t, sampleESModule())
		id := [8]byte{0x00, 0x00, 0x00, 0x01, low[0], low[1], low[2], low[3]}
		tt.Metadata.TitleID = id
		tt.Ticket.TitleID = id
		if _, err := Load(tt); err == nil {
			t.Errorf("expected an error for reserved title id %x, got nil", id)
		}
	}
}

func TestPatchFakesigningZeroesBothSequences(t *testing.T) {
	tt := iosTitleWithESContent(t, sampleESModule())
	p, err := Load(tt)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	n, err := p.PatchFakesigning()
	if err != nil {
		t.Fatalf("PatchFakesigning: %v", err)
	}
	if n != 2 {
		t.Errorf("patched %d sequences, want 2", n)
	}
	patched, err := p.esContent()
	if err != nil {
		t.Fatalf("esContent: %v", err)
	}
	if bytes.Contains(patched, []byte{0x20, 0x07, 0x23, 0xA2}) {
		t.Error("first fakesigning sequence is still intact after patching")
	}
}

func TestPatchAllAppliesFourPatchesNotDriveInquiry(t *testing.T) {
	tt := iosTitleWithESContent(t, sampleESModule())
	p, err := Load(tt)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	n, err := p.PatchAll()
	if err != nil {
		t.Fatalf("PatchAll: %v", err)
	}
	if n != 5 {
		t.Errorf("PatchAll applied %d individual patches, want 5 (2 fakesigning + identify + nand + downgrade)", n)
	}
	if p.DIPModuleIndex != -1 {
		t.Error("PatchAll should not touch DIPModuleIndex")
	}
}

func TestPatchDriveInquiryRequiresDIPModule(t *testing.T) {
	tt := iosTitleWithESContent(t, sampleESModule())
	p, err := Load(tt)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := p.PatchDriveInquiry(); err == nil {
		t.Error("expected an error locating a DIP module that isn't present, got nil")
	}
}
