package store

import (
	"encoding/binary"
	stderrors "errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"go.klb.dev/shotcast/internal/crypto"
	"go.klb.dev/shotcast/internal/item"
)

// Compression identifies how a stored blob was compressed. Values are
// persisted in the blob header; do not renumber.
type Compression uint8

const (
	CompressionNone Compression = 0
	CompressionLZ4  Compression = 1
	CompressionZstd Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", c)
	}
}

var errIncompressible = stderrors.New("incompressible")

var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("store: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("store: zstd decoder initialization failed: " + err.Error())
	}
}

// compressionFor picks zstd for text-like categories and lz4 otherwise.
// Media formats are already compressed and usually fall back to none.
func compressionFor(c item.Category) Compression {
	switch c {
	case item.Text, item.Code, item.Link, item.Data:
		return CompressionZstd
	case item.Image, item.Video, item.Audio, item.Archive, item.Installer:
		return CompressionNone
	default:
		return CompressionLZ4
	}
}

// codec turns payloads into stored blobs and back:
//
//	[ 1-byte compression ][ uvarint raw size ][ body ]
//
// The whole frame is then sealed when a key is configured.
type codec struct {
	key *crypto.Key
}

func (c codec) encode(data []byte, want Compression) ([]byte, error) {
	comp := want
	body, err := compress(data, want)
	if stderrors.Is(err, errIncompressible) {
		comp, body = CompressionNone, data
	} else if err != nil {
		return nil, err
	}

	frame := make([]byte, 0, 1+binary.MaxVarintLen64+len(body))
	frame = append(frame, byte(comp))
	frame = binary.AppendUvarint(frame, uint64(len(data)))
	frame = append(frame, body...)

	if c.key == nil {
		return frame, nil
	}
	return crypto.Seal(frame, c.key)
}

func (c codec) decode(blob []byte) ([]byte, error) {
	frame := blob
	if c.key != nil {
		var err error
		frame, err = crypto.Open(blob, c.key)
		if err != nil {
			return nil, err
		}
	}
	if len(frame) < 2 {
		return nil, fmt.Errorf("blob too short")
	}
	comp := Compression(frame[0])
	size, n := binary.Uvarint(frame[1:])
	if n <= 0 {
		return nil, fmt.Errorf("blob header: bad size")
	}
	body := frame[1+n:]
	return decompress(body, comp, int(size))
}

func compress(data []byte, c Compression) ([]byte, error) {
	switch c {
	case CompressionNone:
		return data, nil
	case CompressionLZ4:
		dst := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, dst, nil)
		if err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		if n == 0 || n >= len(data) {
			return nil, errIncompressible
		}
		return dst[:n], nil
	case CompressionZstd:
		out := zstdEncoder.EncodeAll(data, nil)
		if len(out) >= len(data) {
			return nil, errIncompressible
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported compression: %s", c)
	}
}

func decompress(body []byte, c Compression, size int) ([]byte, error) {
	switch c {
	case CompressionNone:
		if len(body) != size {
			return nil, fmt.Errorf("uncompressed blob: size %d does not match expected %d", len(body), size)
		}
		out := make([]byte, size)
		copy(out, body)
		return out, nil
	case CompressionLZ4:
		dst := make([]byte, size)
		n, err := lz4.UncompressBlock(body, dst)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompress: %w", err)
		}
		if n != size {
			return nil, fmt.Errorf("lz4 decompress: got %d bytes, expected %d", n, size)
		}
		return dst, nil
	case CompressionZstd:
		out, err := zstdDecoder.DecodeAll(body, make([]byte, 0, size))
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		if len(out) != size {
			return nil, fmt.Errorf("zstd decompress: got %d bytes, expected %d", len(out), size)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported compression: %s", c)
	}
}
