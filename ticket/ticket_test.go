package ticket

import (
	"bytes"
	"crypto/sha1"
	"testing"

	"github.com/ninjacheetah/gowiipkg/wiicrypto"
)

func sampleTicket() *Ticket {
	t := &Ticket{
		SignatureType: 0x00010001,
		Issuer:        "Root-CA00000001-XS00000003",
		TitleKeyEnc:   [16]byte{1, 2, 3, 4},
		TicketID:      [8]byte{0, 0, 0, 0, 0, 0, 0, 1},
		ConsoleID:     0x12345678,
		TitleID:       [8]byte{0x00, 0x01, 0x00, 0x02, 0x00, 0x00, 0x00, 0x01},
		TitleVersion:  513,
		CommonKeyIndex: wiicrypto.CommonKeyRetail,
	}
	return t
}

func TestTicketDumpLoadRoundTrip(t *testing.T) {
	orig := sampleTicket()
	dumped, err := orig.Dump()
	if err != nil {
		t.Fatalf("Dump: %v", err)
	}
	if len(dumped) != Size {
		t.Fatalf("dumped ticket length %d, want %d", len(dumped), Size)
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
		t.Error("load(dump(t)) did not round trip byte-identically")
	}
	if loaded.Issuer != orig.Issuer || loaded.TitleID != orig.TitleID || loaded.TitleVersion != orig.TitleVersion {
		t.Errorf("field mismatch after round trip: %+v", loaded)
	}
}

func TestLoadRejectsFormatVersion1(t *testing.T) {
	orig := sampleTicket()
	orig.FormatVersion = 1
	dumped, err := orig.Dump()
	if err != nil {
		t.Fatalf("Dump: %v", err)
	}
	if _, err := Load(dumped); err == nil {
		t.Error("expected an error loading a v1 ticket, got nil")
	}
}

func TestFakesignProducesZeroSignatureAndLeadingZeroHash(t *testing.T) {
	tk := sampleTicket()
	if err := tk.Fakesign(); err != nil {
		t.Fatalf("Fakesign: %v", err)
	}
	if tk.Signature != ([256]byte{}) {
		t.Error("signature was not zeroed by Fakesign")
	}
	dumped, err := tk.Dump()
	if err != nil {
		t.Fatalf("Dump: %v", err)
	}
	digest := sha1.Sum(dumped[320:])
	if digest[0] != 0x00 {
		t.Errorf("body hash after fakesign starts with %#x, want 0x00", digest[0])
	}
	if !tk.IsFakesigned() {
		t.Error("IsFakesigned returned false right after Fakesign")
	}
}

func TestIsFakesignedFalseForUntouchedTicket(t *testing.T) {
	tk := sampleTicket()
	tk.Signature[0] = 0x01
	if tk.IsFakesigned() {
		t.Error("IsFakesigned returned true for a ticket with a non-zero signature")
	}
}

func TestSetTitleVersionStringAndInt(t *testing.T) {
	tk := sampleTicket()
	if err := tk.SetTitleVersionString("4.2"); err != nil {
		t.Fatalf("SetTitleVersionString: %v", err)
	}
	if tk.TitleVersion != 4<<8|2 {
		t.Errorf("TitleVersion = %d, want %d", tk.TitleVersion, 4<<8|2)
	}
	if err := tk.SetTitleVersionInt(70000); err == nil {
		t.Error("expected an error setting an out-of-range version, got nil")
	}
}

func TestIsDevDetectsDevelopmentIssuer(t *testing.T) {
	tk := sampleTicket()
	tk.Issuer = "Root-CA00000002-XS00000006"
	if !tk.IsDev() {
		t.Error("IsDev returned false for a development issuer")
	}
	tk.Issuer = "Root-CA00000001-XS00000003"
	if tk.IsDev() {
		t.Error("IsDev returned true for a retail issuer")
	}
}
