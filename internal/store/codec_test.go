package store

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/shotcast/internal/crypto"
	"go.klb.dev/shotcast/internal/item"
)

var testKDF = crypto.KDFParams{Time: 1, Memory: 64, Threads: 1}

func TestCodec(t *testing.T) {
	random := make([]byte, 4096)
	_, err := rand.Read(random)
	require.NoError(t, err)

	key, err := crypto.DeriveKey("pw", []byte("0123456789abcdef"), testKDF, crypto.PurposeContent)
	require.NoError(t, err)

	inputs := map[string][]byte{
		"text":   bytes.Repeat([]byte("the quick brown fox "), 500),
		"binary": bytes.Repeat([]byte{0, 0, 0, 1, 2, 3}, 1000),
		"random": random,
		"tiny":   []byte("x"),
	}
	for _, c := range []codec{{}, {key: key}} {
		for name, data := range inputs {
			for _, comp := range []Compression{CompressionNone, CompressionLZ4, CompressionZstd} {
				t.Run(name+"/"+comp.String(), func(t *testing.T) {
					blob, err := c.encode(data, comp)
					require.NoError(t, err)
					got, err := c.decode(blob)
					require.NoError(t, err)
					assert.Equal(t, data, got)
				})
			}
		}
	}
}

func TestCodec_CompressesText(t *testing.T) {
	data := bytes.Repeat([]byte("repeat me "), 1000)
	blob, err := codec{}.encode(data, CompressionZstd)
	require.NoError(t, err)
	assert.Less(t, len(blob), len(data)/4)
	assert.Equal(t, byte(CompressionZstd), blob[0])

	// Incompressible input is stored as-is.
	blob, err = codec{}.encode([]byte("ab"), CompressionLZ4)
	require.NoError(t, err)
	assert.Equal(t, byte(CompressionNone), blob[0])
}

func TestCodec_Corrupt(t *testing.T) {
	_, err := codec{}.decode([]byte{1})
	assert.Error(t, err)
	_, err = codec{}.decode([]byte{byte(CompressionNone), 10, 'a'})
	assert.Error(t, err)
	_, err = codec{}.decode([]byte{9, 1, 'a'})
	assert.Error(t, err)
}

func TestCompressionFor(t *testing.T) {
	assert.Equal(t, CompressionZstd, compressionFor(item.Code))
	assert.Equal(t, CompressionNone, compressionFor(item.Video))
	assert.Equal(t, CompressionLZ4, compressionFor(item.Word))
}
