// Package crypto provides NaCl secretbox encryption for stored clipboard
// content and the IPC channel.
//
// A passphrase is stretched into a master key with Argon2id and a
// per-database salt. Purpose-specific 32-byte subkeys (content, IPC) are
// then expanded from the master key with HKDF-SHA256. Every blob is
// encrypted with a random 24-byte nonce prepended to the ciphertext:
//
//	[ 24-byte nonce ][ ciphertext ]
//
// With an empty passphrase the store keeps blobs in the clear and never
// calls into this package.
package crypto

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	KeySize   = 32
	SaltSize  = 16
	nonceSize = 24
)

// Subkey purposes.
const (
	PurposeContent = "shotcast-content-v1"
	PurposeIPC     = "shotcast-ipc-v1"
	PurposeHTTP    = "shotcast-http-v1"
)

// Key is a secretbox key.
type Key = [KeySize]byte

// KDFParams are the Argon2id cost parameters. They are stored next to the
// salt so a history keeps opening after the defaults change.
type KDFParams struct {
	Time    uint32 // passes
	Memory  uint32 // KiB
	Threads uint8
}

// DefaultKDFParams follows the RFC 9106 second recommended option.
var DefaultKDFParams = KDFParams{Time: 3, Memory: 64 << 10, Threads: 4}

// String encodes p for storage.
func (p KDFParams) String() string {
	return fmt.Sprintf("argon2id t=%d m=%d p=%d", p.Time, p.Memory, p.Threads)
}

// ParseKDFParams decodes the String form.
func ParseKDFParams(s string) (KDFParams, error) {
	var p KDFParams
	if _, err := fmt.Sscanf(s, "argon2id t=%d m=%d p=%d", &p.Time, &p.Memory, &p.Threads); err != nil {
		return KDFParams{}, fmt.Errorf("kdf params %q: %w", s, err)
	}
	if err := p.validate(); err != nil {
		return KDFParams{}, err
	}
	return p, nil
}

func (p KDFParams) validate() error {
	if p.Time == 0 || p.Threads == 0 || p.Memory < 8*uint32(p.Threads) {
		return fmt.Errorf("kdf params out of range: %s", p)
	}
	return nil
}

// NewSalt returns a random salt for MasterKey.
func NewSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("salt generation: %w", err)
	}
	return salt, nil
}

// MasterKey stretches passphrase with Argon2id. The same inputs always
// produce the same key.
func MasterKey(passphrase string, salt []byte, p KDFParams) (*Key, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("key derivation: empty passphrase")
	}
	if err := p.validate(); err != nil {
		return nil, fmt.Errorf("key derivation: %w", err)
	}
	var key Key
	copy(key[:], argon2.IDKey([]byte(passphrase), salt, p.Time, p.Memory, p.Threads, KeySize))
	return &key, nil
}

// Subkey expands master into an independent key for purpose.
func Subkey(master *Key, purpose string) (*Key, error) {
	h := hkdf.New(sha256.New, master[:], nil, []byte(purpose))
	var key Key
	if _, err := io.ReadFull(h, key[:]); err != nil {
		return nil, fmt.Errorf("subkey %s: %w", purpose, err)
	}
	return &key, nil
}

// Token returns a hex bearer token bound to key and purpose. It lets a
// peer prove it holds key without sending anything sealed.
func Token(key *Key, purpose string) string {
	m := hmac.New(sha256.New, key[:])
	m.Write([]byte(purpose))
	return hex.EncodeToString(m.Sum(nil))
}

// DeriveKey is MasterKey followed by Subkey.
func DeriveKey(passphrase string, salt []byte, p KDFParams, purpose string) (*Key, error) {
	master, err := MasterKey(passphrase, salt, p)
	if err != nil {
		return nil, err
	}
	return Subkey(master, purpose)
}

// Seal encrypts plaintext with key, prepending a random nonce.
// Returns nonce+ciphertext.
func Seal(plaintext []byte, key *Key) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("nonce generation: %w", err)
	}
	ct := secretbox.Seal(nonce[:], plaintext, &nonce, key)
	return ct, nil
}

// Open decrypts ciphertext (nonce+ciphertext) with key.
func Open(ciphertext []byte, key *Key) ([]byte, error) {
	if len(ciphertext) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}
	var nonce [nonceSize]byte
	copy(nonce[:], ciphertext[:nonceSize])
	plain, ok := secretbox.Open(nil, ciphertext[nonceSize:], &nonce, key)
	if !ok {
		return nil, fmt.Errorf("decryption failed (wrong passphrase?)")
	}
	return plain, nil
}
