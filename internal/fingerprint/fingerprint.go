// Package fingerprint computes the content-addressable identity of captured
// clipboard payloads.
//
// A fingerprint is a BLAKE3 keyed hash over the raw bytes only. Metadata,
// titles and thumbnails never feed into it, so two captures of the same
// bytes always collide and are deduplicated by the store.
package fingerprint

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"

	"go.klb.dev/shotcast/internal/errors"
)

// Size is the length of a fingerprint in bytes.
const Size = 32

// Fingerprint is a 32-byte BLAKE3 digest of a clipboard payload.
type Fingerprint [Size]byte

// domainKey keys the hash so that shotcast fingerprints never coincide with
// plain BLAKE3 digests of the same bytes computed elsewhere. The value is
// the ASCII domain name zero-padded to 32 bytes; changing it invalidates
// every stored fingerprint.
var domainKey = [32]byte{
	's', 'h', 'o', 't', 'c', 'a', 's', 't', '.', 'c', 'l', 'i', 'p', '.',
	'c', 'o', 'n', 't', 'e', 'n', 't', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// Of returns the fingerprint of data. Empty payloads are rejected: an item
// with zero bytes is never constructed, so it never needs an identity.
func Of(data []byte) (Fingerprint, error) {
	if len(data) == 0 {
		return Fingerprint{}, errors.NewCapture("empty payload", nil)
	}
	hasher, err := blake3.NewKeyed(domainKey[:])
	if err != nil {
		return Fingerprint{}, errors.NewInternal(err)
	}
	_, _ = hasher.Write(data)

	var fp Fingerprint
	copy(fp[:], hasher.Sum(nil))
	return fp, nil
}

// String returns the lowercase hex encoding used in logs and the store.
func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

// Short returns the first 12 hex characters, for log lines.
func (f Fingerprint) Short() string {
	return f.String()[:12]
}

// IsZero reports whether f is the zero value.
func (f Fingerprint) IsZero() bool {
	return f == Fingerprint{}
}

// MarshalText implements encoding.TextMarshaler.
func (f Fingerprint) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Fingerprint) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// Parse decodes a 64-character hex fingerprint.
func Parse(s string) (Fingerprint, error) {
	var fp Fingerprint
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return fp, fmt.Errorf("parsing fingerprint: %w", err)
	}
	if len(decoded) != Size {
		return fp, fmt.Errorf("fingerprint is %d bytes, want %d", len(decoded), Size)
	}
	copy(fp[:], decoded)
	return fp, nil
}
