// Package wiicrypto implements the common-key table and the AES-128-CBC
// primitives used to wrap/unwrap title keys and encrypt/decrypt content
// blobs (component 4.1).
package wiicrypto

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
	"fmt"

	"github.com/ninjacheetah/gowiipkg/werr"
)

// CommonKeyIndex selects which common key wraps a ticket's title key.
type CommonKeyIndex uint8

const (
	CommonKeyRetail CommonKeyIndex = 0
	CommonKeyKorean CommonKeyIndex = 1
	CommonKeyVWii   CommonKeyIndex = 2
)

// commonKeyRetail, commonKeyKorean, commonKeyVWii, and commonKeyDevelopment
// are the four hard-coded 128-bit keys used across every console in the
// wild. They are module-private immutable constants, never mutated at
// runtime, per the "no global mutable key table" design note.
var (
	commonKeyRetail      = [16]byte{0xeb, 0xe4, 0x2a, 0x22, 0x5e, 0x85, 0x93, 0xe4, 0x48, 0xd9, 0xc5, 0x45, 0x73, 0x81, 0xaa, 0xf7}
	commonKeyKorean      = [16]byte{0x63, 0xb8, 0x2b, 0xb4, 0xf4, 0x61, 0x4e, 0x2e, 0x13, 0xf2, 0xfe, 0xfb, 0xba, 0x4c, 0x9b, 0x7e}
	commonKeyVWii        = [16]byte{0x30, 0xbf, 0xc7, 0x6e, 0x7c, 0x19, 0xaf, 0xbb, 0x23, 0x16, 0x33, 0x30, 0xce, 0xd7, 0xc2, 0x8d}
	commonKeyDevelopment = [16]byte{0xa1, 0x60, 0x4a, 0x6a, 0x71, 0x23, 0xb5, 0x29, 0xae, 0x8b, 0xec, 0x32, 0xc8, 0x16, 0xfc, 0xaa}
)

// CommonKey returns the 16-byte common key for the given index. An unknown
// index falls back to the retail key rather than failing, matching the
// one explicitly-documented silent fallback in this component. dev only
// changes the result for index 0.
func CommonKey(index CommonKeyIndex, dev bool) [16]byte {
	switch index {
	case CommonKeyKorean:
		return commonKeyKorean
	case CommonKeyVWii:
		return commonKeyVWii
	case CommonKeyRetail:
		fallthrough
	default:
		if dev {
			return commonKeyDevelopment
		}
		return commonKeyRetail
	}
}

func titleKeyIV(titleID [8]byte) [16]byte {
	var iv [16]byte
	copy(iv[:8], titleID[:])
	return iv
}

// UnwrapTitleKey decrypts a ticket's encrypted title key using the common
// key selected by keyIndex, with the IV derived from the title id.
func UnwrapTitleKey(enc [16]byte, keyIndex CommonKeyIndex, titleID [8]byte, dev bool) ([16]byte, error) {
	key := CommonKey(keyIndex, dev)
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return [16]byte{}, fmt.Errorf("building common key cipher: %w", err)
	}
	iv := titleKeyIV(titleID)
	var out [16]byte
	cipher.NewCBCDecrypter(block, iv[:]).CryptBlocks(out[:], enc[:])
	return out, nil
}

// WrapTitleKey is the inverse of UnwrapTitleKey: it encrypts a raw title
// key under the selected common key.
func WrapTitleKey(dec [16]byte, keyIndex CommonKeyIndex, titleID [8]byte, dev bool) ([16]byte, error) {
	key := CommonKey(keyIndex, dev)
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return [16]byte{}, fmt.Errorf("building common key cipher: %w", err)
	}
	iv := titleKeyIV(titleID)
	var out [16]byte
	cipher.NewCBCEncrypter(block, iv[:]).CryptBlocks(out[:], dec[:])
	return out, nil
}

func contentIV(index uint16) [16]byte {
	var iv [16]byte
	binary.BigEndian.PutUint16(iv[:2], index)
	return iv
}

func roundUp16(n int) int {
	if n%16 == 0 {
		return n
	}
	return n + (16 - n%16)
}

// DecryptContent decrypts a content blob with the given title key and
// index, then truncates the result to decryptedSize. enc is zero-padded up
// to a 16-byte multiple before decryption if it isn't already one (content
// blobs are always stored with that alignment, but defend against short
// reads from a misbehaving caller).
func DecryptContent(enc []byte, titleKey [16]byte, index uint16, decryptedSize uint64) ([]byte, error) {
	block, err := aes.NewCipher(titleKey[:])
	if err != nil {
		return nil, fmt.Errorf("building title key cipher: %w", err)
	}
	padded := enc
	if len(padded)%16 != 0 {
		padded = make([]byte, roundUp16(len(enc)))
		copy(padded, enc)
	}
	if len(padded) == 0 {
		if decryptedSize != 0 {
			return nil, fmt.Errorf("%w: empty content but declared size %d", werr.ErrMalformedStructure, decryptedSize)
		}
		return []byte{}, nil
	}
	iv := contentIV(index)
	out := make([]byte, len(padded))
	cipher.NewCBCDecrypter(block, iv[:]).CryptBlocks(out, padded)
	if uint64(len(out)) < decryptedSize {
		return nil, fmt.Errorf("%w: decrypted %d bytes but declared size is %d", werr.ErrMalformedStructure, len(out), decryptedSize)
	}
	return out[:decryptedSize], nil
}

// EncryptContent encrypts a decrypted content blob with the given title key
// and index. The returned ciphertext length is round_up(len(dec), 16):
// callers must not assume the output is always a whole number of extra AES
// blocks beyond the input. This intentionally fixes the reference
// implementation's unconditional len + (16 - len%16) rounding, which
// over-allocated by 16 bytes whenever len was already 16-aligned.
func EncryptContent(dec []byte, titleKey [16]byte, index uint16) ([]byte, error) {
	block, err := aes.NewCipher(titleKey[:])
	if err != nil {
		return nil, fmt.Errorf("building title key cipher: %w", err)
	}
	outLen := roundUp16(len(dec))
	padded := make([]byte, outLen)
	copy(padded, dec)
	if outLen == 0 {
		return []byte{}, nil
	}
	iv := contentIV(index)
	out := make([]byte, outLen)
	cipher.NewCBCEncrypter(block, iv[:]).CryptBlocks(out, padded)
	return out[:outLen], nil
}
