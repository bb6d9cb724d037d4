package diagjournal

import (
	"bytes"
	"fmt"
	"io"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec compresses and decompresses journal record payloads. Pluggable so
// the rotation format can trade CPU for on-disk size per deployment.
type Codec interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
	Name() string
}

// NewCodec returns the named codec, or an error if the name is unknown.
func NewCodec(name string) (Codec, error) {
	switch name {
	case "", "none":
		return noneCodec{}, nil
	case "snappy":
		return &snappyCodec{}, nil
	case "lz4":
		return &lz4Codec{}, nil
	case "zstd":
		return &zstdCodec{}, nil
	default:
		return nil, fmt.Errorf("diagjournal: unknown codec %q", name)
	}
}

type noneCodec struct{}

func (noneCodec) Name() string                            { return "none" }
func (noneCodec) Compress(data []byte) ([]byte, error)    { return data, nil }
func (noneCodec) Decompress(data []byte) ([]byte, error)  { return data, nil }

type snappyCodec struct{}

func (*snappyCodec) Name() string { return "snappy" }

func (*snappyCodec) Compress(data []byte) ([]byte, error) {
	return snappy.Encode(nil, data), nil
}

func (*snappyCodec) Decompress(data []byte) ([]byte, error) {
	return snappy.Decode(nil, data)
}

type lz4Codec struct{}

func (*lz4Codec) Name() string { return "lz4" }

func (*lz4Codec) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (*lz4Codec) Decompress(data []byte) ([]byte, error) {
	return io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
}

// zstdCodec lazily initializes its encoder/decoder on first use, mirroring
// the teacher's ZSTDAlgorithm.
type zstdCodec struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

func (*zstdCodec) Name() string { return "zstd" }

func (c *zstdCodec) Compress(data []byte) ([]byte, error) {
	if c.encoder == nil {
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, err
		}
		c.encoder = enc
	}
	return c.encoder.EncodeAll(data, nil), nil
}

func (c *zstdCodec) Decompress(data []byte) ([]byte, error) {
	if c.decoder == nil {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		c.decoder = dec
	}
	return c.decoder.DecodeAll(data, nil)
}
