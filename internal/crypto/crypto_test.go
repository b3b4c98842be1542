package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fast keeps Argon2id cheap in tests.
var fast = KDFParams{Time: 1, Memory: 64, Threads: 1}

func TestSealOpen(t *testing.T) {
	salt, err := NewSalt()
	require.NoError(t, err)
	require.Len(t, salt, SaltSize)

	key, err := DeriveKey("correct horse", salt, fast, PurposeContent)
	require.NoError(t, err)

	ct, err := Seal([]byte("secret clipboard"), key)
	require.NoError(t, err)
	assert.NotContains(t, string(ct), "secret clipboard")

	plain, err := Open(ct, key)
	require.NoError(t, err)
	assert.Equal(t, "secret clipboard", string(plain))
}

func TestDeriveKey(t *testing.T) {
	salt := []byte("0123456789abcdef")
	a, err := DeriveKey("pass", salt, fast, PurposeContent)
	require.NoError(t, err)
	b, err := DeriveKey("pass", salt, fast, PurposeContent)
	require.NoError(t, err)
	assert.Equal(t, *a, *b)

	c, err := DeriveKey("pass", []byte("fedcba9876543210"), fast, PurposeContent)
	require.NoError(t, err)
	assert.NotEqual(t, *a, *c)

	ipc, err := DeriveKey("pass", salt, fast, PurposeIPC)
	require.NoError(t, err)
	assert.NotEqual(t, *a, *ipc)

	costly, err := DeriveKey("pass", salt, KDFParams{Time: 2, Memory: 64, Threads: 1}, PurposeContent)
	require.NoError(t, err)
	assert.NotEqual(t, *a, *costly)

	_, err = DeriveKey("", salt, fast, PurposeContent)
	assert.Error(t, err)
	_, err = DeriveKey("pass", salt, KDFParams{}, PurposeContent)
	assert.Error(t, err)
}

func TestSubkeyDiffersFromMaster(t *testing.T) {
	salt := []byte("0123456789abcdef")
	m, err := MasterKey("pass", salt, fast)
	require.NoError(t, err)
	sub, err := Subkey(m, PurposeContent)
	require.NoError(t, err)
	assert.NotEqual(t, *m, *sub)
}

func TestKDFParamsRoundTrip(t *testing.T) {
	p, err := ParseKDFParams(DefaultKDFParams.String())
	require.NoError(t, err)
	assert.Equal(t, DefaultKDFParams, p)
	assert.Equal(t, "argon2id t=3 m=65536 p=4", DefaultKDFParams.String())

	_, err = ParseKDFParams("pbkdf2 i=1000")
	assert.Error(t, err)
	_, err = ParseKDFParams("argon2id t=0 m=65536 p=4")
	assert.Error(t, err)
}

func TestOpen_Failures(t *testing.T) {
	salt := []byte("0123456789abcdef")
	key, _ := DeriveKey("right", salt, fast, PurposeContent)
	wrong, _ := DeriveKey("wrong", salt, fast, PurposeContent)

	ct, err := Seal([]byte("x"), key)
	require.NoError(t, err)

	_, err = Open(ct, wrong)
	assert.ErrorContains(t, err, "wrong passphrase")

	_, err = Open([]byte("short"), key)
	assert.ErrorContains(t, err, "too short")
}

func TestToken(t *testing.T) {
	var a, b Key
	b[0] = 1

	tok := Token(&a, PurposeHTTP)
	assert.Len(t, tok, 64)
	assert.Equal(t, tok, Token(&a, PurposeHTTP))
	assert.NotEqual(t, tok, Token(&b, PurposeHTTP))
	assert.NotEqual(t, tok, Token(&a, PurposeIPC))
}
