// Package werr defines the sentinel error kinds shared by every component
// of this module. Callers should test against these with errors.Is; every
// function that returns one of them wraps additional context with
// fmt.Errorf("...: %w", ...).
package werr

import "errors"

var (
	// ErrInvalidMagic means a magic/prologue value did not match at the
	// expected offset.
	ErrInvalidMagic = errors.New("invalid magic")

	// ErrUnsupportedVersion means a structurally valid but unsupported
	// format version was encountered (e.g. a ticket format version other
	// than 0).
	ErrUnsupportedVersion = errors.New("unsupported version")

	// ErrMalformedStructure means a length, record count, or nested field
	// didn't agree with the rest of the structure.
	ErrMalformedStructure = errors.New("malformed structure")

	// ErrHashMismatch means a decrypted content's SHA-1 didn't match its
	// content record.
	ErrHashMismatch = errors.New("hash mismatch")

	// ErrSignatureMismatch means RSA verification of a signature failed.
	ErrSignatureMismatch = errors.New("signature mismatch")

	// ErrInvalidCert means a certificate's role didn't match what an
	// operation expected (e.g. verifying a ticket against a TMD cert).
	ErrInvalidCert = errors.New("invalid certificate")

	// ErrInvalidArgument means a caller-supplied value was out of range
	// or otherwise invalid (bad title id length, out-of-range version,
	// duplicate content id/index, invalid compression level, ...).
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound means a requested index/id/record was not present.
	ErrNotFound = errors.New("not found")

	// ErrFakesignExhausted means the fakesign brute-force counter
	// overflowed 16 bits without finding a leading-zero hash.
	ErrFakesignExhausted = errors.New("fakesign counter exhausted")

	// ErrIO wraps external filesystem or network failures.
	ErrIO = errors.New("i/o error")
)
