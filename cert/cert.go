// Package cert implements the three-certificate chain used to verify the
// signatures over a title's metadata and ticket (component 4.2), following
// the same offset-seek parsing idiom used by this module's signature and
// archive parsers: read a header, derive lengths from a discriminator
// field, then re-seek to fixed offsets for the remaining fields.
package cert

import (
	"bytes"
	"crypto"
	"crypto/rsa"
	"crypto/sha1"
	"encoding/binary"
	"fmt"
	"math/big"
	"strings"

	"github.com/ninjacheetah/gowiipkg/werr"
)

// SigType discriminates a certificate's signature algorithm.
type SigType uint32

const (
	SigRSA4096 SigType = 0x00010000
	SigRSA2048 SigType = 0x00010001
	SigECC     SigType = 0x00010002
)

// KeyType discriminates a certificate's public key algorithm.
type KeyType uint32

const (
	KeyRSA4096 KeyType = 0x00000000
	KeyRSA2048 KeyType = 0x00000001
	KeyECC     KeyType = 0x00000002
)

func sigLength(t SigType) (int, error) {
	switch t {
	case SigRSA4096:
		return 0x200, nil
	case SigRSA2048:
		return 0x100, nil
	case SigECC:
		return 0x3C, nil
	default:
		return 0, fmt.Errorf("%w: unknown signature type %#x", werr.ErrInvalidMagic, uint32(t))
	}
}

func keyLength(t KeyType) (int, error) {
	switch t {
	case KeyRSA4096:
		return 0x200, nil
	case KeyRSA2048:
		return 0x100, nil
	case KeyECC:
		return 0x3C, nil
	default:
		return 0, fmt.Errorf("%w: unknown public key type %#x", werr.ErrInvalidMagic, uint32(t))
	}
}

func alignUp(n, to int) int {
	if n%to == 0 {
		return n
	}
	return n + (to - n%to)
}

// Certificate is a single certificate from the chain: the CA root, the
// metadata signer ("CP"), or the ticket signer ("XS").
type Certificate struct {
	Type          SigType
	Signature     []byte
	Issuer        string
	PubKeyType    KeyType
	ChildName     string
	PubKeyID      uint32
	PubKeyModulus []byte // big-endian, length by PubKeyType
	PubKeyExp     uint32 // only meaningful for RSA key types
}

func trimNullString(b []byte) string {
	return strings.TrimRight(string(b), "\x00")
}

func padString(s string, n int) []byte {
	b := make([]byte, n)
	copy(b, s)
	return b
}

// Size returns the total aligned-up-to-64 byte length of this certificate.
func (c *Certificate) Size() (int, error) {
	sl, err := sigLength(c.Type)
	if err != nil {
		return 0, err
	}
	kl, err := keyLength(c.PubKeyType)
	if err != nil {
		return 0, err
	}
	total := 0xC8 + sl + kl
	if c.PubKeyType == KeyRSA4096 || c.PubKeyType == KeyRSA2048 {
		total += 4
	}
	return alignUp(total, 64), nil
}

// ParseCertificate parses a single certificate from the start of data,
// returning its total on-disk size so the caller (typically LoadChain) can
// advance to the next certificate.
func ParseCertificate(data []byte) (*Certificate, int, error) {
	if len(data) < 4 {
		return nil, 0, fmt.Errorf("%w: certificate shorter than its type field", werr.ErrMalformedStructure)
	}
	c := &Certificate{Type: SigType(binary.BigEndian.Uint32(data[0:4]))}
	sl, err := sigLength(c.Type)
	if err != nil {
		return nil, 0, err
	}
	if len(data) < 4+sl {
		return nil, 0, fmt.Errorf("%w: truncated certificate signature", werr.ErrMalformedStructure)
	}
	c.Signature = append([]byte(nil), data[4:4+sl]...)

	issuerOff := 0x40 + sl
	if len(data) < issuerOff+0x40 {
		return nil, 0, fmt.Errorf("%w: truncated certificate issuer", werr.ErrMalformedStructure)
	}
	c.Issuer = trimNullString(data[issuerOff : issuerOff+0x40])

	keyTypeOff := 0x80 + sl
	if len(data) < keyTypeOff+4 {
		return nil, 0, fmt.Errorf("%w: truncated certificate key type", werr.ErrMalformedStructure)
	}
	c.PubKeyType = KeyType(binary.BigEndian.Uint32(data[keyTypeOff : keyTypeOff+4]))

	childOff := 0x84 + sl
	if len(data) < childOff+0x40 {
		return nil, 0, fmt.Errorf("%w: truncated certificate child name", werr.ErrMalformedStructure)
	}
	c.ChildName = trimNullString(data[childOff : childOff+0x40])

	keyIDOff := 0xC4 + sl
	if len(data) < keyIDOff+4 {
		return nil, 0, fmt.Errorf("%w: truncated certificate key id", werr.ErrMalformedStructure)
	}
	c.PubKeyID = binary.BigEndian.Uint32(data[keyIDOff : keyIDOff+4])

	kl, err := keyLength(c.PubKeyType)
	if err != nil {
		return nil, 0, err
	}
	modOff := 0xC8 + sl
	if len(data) < modOff+kl {
		return nil, 0, fmt.Errorf("%w: truncated certificate modulus", werr.ErrMalformedStructure)
	}
	c.PubKeyModulus = append([]byte(nil), data[modOff:modOff+kl]...)

	total := modOff + kl
	if c.PubKeyType == KeyRSA4096 || c.PubKeyType == KeyRSA2048 {
		if len(data) < total+4 {
			return nil, 0, fmt.Errorf("%w: truncated certificate exponent", werr.ErrMalformedStructure)
		}
		c.PubKeyExp = binary.BigEndian.Uint32(data[total : total+4])
		total += 4
	}
	return c, alignUp(total, 64), nil
}

// Dump serializes the certificate back to its on-disk, 64-byte-aligned
// representation.
func (c *Certificate) Dump() ([]byte, error) {
	sl, err := sigLength(c.Type)
	if err != nil {
		return nil, err
	}
	kl, err := keyLength(c.PubKeyType)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	var tmp4 [4]byte
	binary.BigEndian.PutUint32(tmp4[:], uint32(c.Type))
	buf.Write(tmp4[:])
	sig := make([]byte, sl)
	copy(sig, c.Signature)
	buf.Write(sig)
	padTo(&buf, 0x40+sl)
	buf.Write(padString(c.Issuer, 0x40))
	binary.BigEndian.PutUint32(tmp4[:], uint32(c.PubKeyType))
	buf.Write(tmp4[:])
	buf.Write(padString(c.ChildName, 0x40))
	binary.BigEndian.PutUint32(tmp4[:], c.PubKeyID)
	buf.Write(tmp4[:])
	mod := make([]byte, kl)
	copy(mod, c.PubKeyModulus)
	buf.Write(mod)
	if c.PubKeyType == KeyRSA4096 || c.PubKeyType == KeyRSA2048 {
		binary.BigEndian.PutUint32(tmp4[:], c.PubKeyExp)
		buf.Write(tmp4[:])
	}
	out := buf.Bytes()
	aligned := alignUp(len(out), 64)
	if aligned > len(out) {
		out = append(out, make([]byte, aligned-len(out))...)
	}
	return out, nil
}

func padTo(buf *bytes.Buffer, target int) {
	if buf.Len() < target {
		buf.Write(make([]byte, target-buf.Len()))
	}
}

// Chain is the ordered three-certificate chain bundled in every package:
// the CA root, the metadata ("CP") signer, and the ticket ("XS") signer.
type Chain struct {
	CA     *Certificate
	Meta   *Certificate
	Ticket *Certificate
}

// LoadChain parses the three certificates present in data, classifying
// each by issuer and child name. It rejects unknown or duplicate roles.
func LoadChain(data []byte) (*Chain, error) {
	chain := &Chain{}
	offset := 0
	for i := 0; i < 3; i++ {
		if offset >= len(data) {
			return nil, fmt.Errorf("%w: certificate chain truncated after %d certificate(s)", werr.ErrMalformedStructure, i)
		}
		c, size, err := ParseCertificate(data[offset:])
		if err != nil {
			return nil, fmt.Errorf("parsing certificate %d: %w", i, err)
		}
		switch {
		case c.Issuer == "Root":
			if chain.CA != nil {
				return nil, fmt.Errorf("%w: duplicate CA certificate in chain", werr.ErrMalformedStructure)
			}
			chain.CA = c
		case strings.Contains(c.Issuer, "Root-CA"):
			switch {
			case strings.Contains(c.ChildName, "CP"):
				if chain.Meta != nil {
					return nil, fmt.Errorf("%w: duplicate metadata certificate in chain", werr.ErrMalformedStructure)
				}
				chain.Meta = c
			case strings.Contains(c.ChildName, "XS"):
				if chain.Ticket != nil {
					return nil, fmt.Errorf("%w: duplicate ticket certificate in chain", werr.ErrMalformedStructure)
				}
				chain.Ticket = c
			default:
				return nil, fmt.Errorf("%w: unrecognized certificate child name %q", werr.ErrMalformedStructure, c.ChildName)
			}
		default:
			return nil, fmt.Errorf("%w: unrecognized certificate issuer %q", werr.ErrMalformedStructure, c.Issuer)
		}
		offset += size
	}
	if chain.CA == nil || chain.Meta == nil || chain.Ticket == nil {
		return nil, fmt.Errorf("%w: certificate chain missing a required role", werr.ErrMalformedStructure)
	}
	return chain, nil
}

// Dump serializes the chain in canonical order: CA, metadata, ticket.
func (c *Chain) Dump() ([]byte, error) {
	var buf bytes.Buffer
	for _, cert := range []*Certificate{c.CA, c.Meta, c.Ticket} {
		b, err := cert.Dump()
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	return buf.Bytes(), nil
}

func rsaPublicKey(modulus []byte, exponent uint32) *rsa.PublicKey {
	n := new(big.Int).SetBytes(modulus)
	return &rsa.PublicKey{N: n, E: int(exponent)}
}

func verifyPKCS1v15SHA1(pub *rsa.PublicKey, body, sig []byte) error {
	digest := sha1.Sum(body)
	if err := rsa.VerifyPKCS1v15(pub, crypto.SHA1, digest[:], sig); err != nil {
		return fmt.Errorf("%w: %v", werr.ErrSignatureMismatch, err)
	}
	return nil
}

// VerifyCA verifies a CA certificate against the hard-coded retail or
// development root modulus, selected by the certificate's child name.
func VerifyCA(ca *Certificate) error {
	if ca.Issuer != "Root" || !strings.Contains(ca.ChildName, "CA") {
		return fmt.Errorf("%w: certificate is not a CA certificate", werr.ErrInvalidCert)
	}
	var modulus []byte
	switch ca.ChildName {
	case "CA00000001":
		modulus = rootModulusRetail[:]
	case "CA00000002":
		modulus = rootModulusDevelopment[:]
	default:
		return fmt.Errorf("%w: unrecognized CA certificate %q", werr.ErrInvalidCert, ca.ChildName)
	}
	dump, err := ca.Dump()
	if err != nil {
		return err
	}
	if len(dump) < 576 {
		return fmt.Errorf("%w: CA certificate shorter than signed body offset", werr.ErrMalformedStructure)
	}
	pub := rsaPublicKey(modulus, 0x00010001)
	return verifyPKCS1v15SHA1(pub, dump[576:], ca.Signature)
}

// VerifyChild verifies that target was issued by ca (its issuer must equal
// "Root-"+ca.ChildName) and checks its signature over the body starting at
// offset 320.
func VerifyChild(ca, target *Certificate) error {
	if ca.Issuer != "Root" || !strings.Contains(ca.ChildName, "CA") {
		return fmt.Errorf("%w: verifying certificate is not a CA certificate", werr.ErrInvalidCert)
	}
	if "Root-"+ca.ChildName != target.Issuer {
		return fmt.Errorf("%w: certificate issuer %q does not match CA %q", werr.ErrInvalidCert, target.Issuer, ca.ChildName)
	}
	dump, err := target.Dump()
	if err != nil {
		return err
	}
	if len(dump) < 320 {
		return fmt.Errorf("%w: certificate shorter than signed body offset", werr.ErrMalformedStructure)
	}
	pub := rsaPublicKey(ca.PubKeyModulus, ca.PubKeyExp)
	return verifyPKCS1v15SHA1(pub, dump[320:], target.Signature)
}

// Signed is satisfied by both *tmd.Metadata and *ticket.Ticket: both expose
// a dump of their full envelope plus the issuer string recorded in that
// envelope, which verification matches against "cert.Issuer-cert.ChildName".
type Signed interface {
	Dump() ([]byte, error)
	SignatureIssuer() string
	SignatureBytes() []byte
}

// VerifySigned verifies a metadata or ticket document's signature using
// the supplied certificate, which must be the ("CP" or "XS") cert named in
// the document's own issuer field.
func VerifySigned(c *Certificate, roleSubstr string, doc Signed) error {
	if !strings.Contains(c.Issuer, "Root-CA") || !strings.Contains(c.ChildName, roleSubstr) {
		return fmt.Errorf("%w: certificate is not a %s certificate", werr.ErrInvalidCert, roleSubstr)
	}
	if c.Issuer+"-"+c.ChildName != doc.SignatureIssuer() {
		return fmt.Errorf("%w: document was not signed by the provided certificate", werr.ErrInvalidCert)
	}
	dump, err := doc.Dump()
	if err != nil {
		return err
	}
	if len(dump) < 320 {
		return fmt.Errorf("%w: document shorter than signed body offset", werr.ErrMalformedStructure)
	}
	pub := rsaPublicKey(c.PubKeyModulus, c.PubKeyExp)
	return verifyPKCS1v15SHA1(pub, dump[320:], doc.SignatureBytes())
}
