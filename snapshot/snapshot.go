// Package snapshot persists the sample buffer and sampler state of a
// run so it can be inspected or replayed later.
//
// The on-disk format is self-describing:
//
//	[Magic:8][CodecNameLen:1][CodecName:N][Compression:1][PayloadLen:8][CRC32:4][Payload]
//
// The payload is the codec-marshaled Snapshot, compressed as recorded in
// the header. The checksum covers the compressed payload.
package snapshot

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/hupe1980/vmc/codec"
	"github.com/hupe1980/vmc/rng"
	"github.com/hupe1980/vmc/sampler"
)

var magic = [8]byte{'V', 'M', 'C', 'S', 'N', 'A', 'P', 1}

var (
	// ErrBadMagic is returned when the input does not start with the
	// snapshot magic.
	ErrBadMagic = errors.New("not a snapshot file")

	// ErrChecksum is returned when the payload checksum does not match.
	ErrChecksum = errors.New("snapshot payload checksum mismatch")
)

// Compression identifies the payload compression scheme.
type Compression uint8

const (
	None Compression = iota
	Zstd
	LZ4
)

func (c Compression) String() string {
	switch c {
	case None:
		return "none"
	case Zstd:
		return "zstd"
	case LZ4:
		return "lz4"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(c))
	}
}

// Snapshot captures everything needed to replay a sampling run: the
// cached sample buffer (steps x chains x size) and the sampler's random
// key.
type Snapshot struct {
	Samples [][][]float64 `json:"samples"`
	KeyHi   uint64        `json:"key_hi"`
	KeyLo   uint64        `json:"key_lo"`
}

// New captures samples and the sampler state. The sample buffer is
// referenced, not copied; callers that keep mutating it should clone
// first.
func New(samples [][][]float64, st sampler.State) *Snapshot {
	hi, lo := st.Key().Words()
	return &Snapshot{Samples: samples, KeyHi: hi, KeyLo: lo}
}

// State reconstructs the sampler state carried by the snapshot.
func (s *Snapshot) State() sampler.State {
	return sampler.NewState(rng.FromWords(s.KeyHi, s.KeyLo))
}

type options struct {
	codec       codec.Codec
	compression Compression
}

// Option configures snapshot writing.
type Option func(*options)

// WithCodec selects the payload codec. The default is codec.Default.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c != nil {
			o.codec = c
		}
	}
}

// WithCompression selects the payload compression. The default is Zstd.
func WithCompression(c Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// Write encodes snap to w.
func Write(w io.Writer, snap *Snapshot, optFns ...Option) error {
	o := options{codec: codec.Default, compression: Zstd}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}

	payload, err := o.codec.Marshal(snap)
	if err != nil {
		return fmt.Errorf("snapshot: marshal: %w", err)
	}
	payload, err = compress(payload, o.compression)
	if err != nil {
		return err
	}

	if _, err := w.Write(magic[:]); err != nil {
		return err
	}
	name := o.codec.Name()
	if len(name) > 255 {
		return fmt.Errorf("snapshot: codec name %q too long", name)
	}
	if _, err := w.Write([]byte{uint8(len(name))}); err != nil {
		return err
	}
	if _, err := w.Write([]byte(name)); err != nil {
		return err
	}
	if _, err := w.Write([]byte{uint8(o.compression)}); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(len(payload))); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, crc32.ChecksumIEEE(payload)); err != nil {
		return err
	}
	_, err = w.Write(payload)
	return err
}

// Read decodes a snapshot from r, validating magic and checksum and
// selecting codec and compression from the header.
func Read(r io.Reader) (*Snapshot, error) {
	var gotMagic [8]byte
	if _, err := io.ReadFull(r, gotMagic[:]); err != nil {
		return nil, fmt.Errorf("snapshot: header: %w", err)
	}
	if gotMagic != magic {
		return nil, ErrBadMagic
	}

	var nameLen [1]byte
	if _, err := io.ReadFull(r, nameLen[:]); err != nil {
		return nil, err
	}
	name := make([]byte, nameLen[0])
	if _, err := io.ReadFull(r, name); err != nil {
		return nil, err
	}
	c, ok := codec.ByName(string(name))
	if !ok {
		return nil, fmt.Errorf("snapshot: unknown codec %q", name)
	}

	var compByte [1]byte
	if _, err := io.ReadFull(r, compByte[:]); err != nil {
		return nil, err
	}

	var payloadLen uint64
	if err := binary.Read(r, binary.LittleEndian, &payloadLen); err != nil {
		return nil, err
	}
	var sum uint32
	if err := binary.Read(r, binary.LittleEndian, &sum); err != nil {
		return nil, err
	}

	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("snapshot: payload: %w", err)
	}
	if crc32.ChecksumIEEE(payload) != sum {
		return nil, ErrChecksum
	}

	payload, err := decompress(payload, Compression(compByte[0]))
	if err != nil {
		return nil, err
	}

	var snap Snapshot
	if err := c.Unmarshal(payload, &snap); err != nil {
		return nil, fmt.Errorf("snapshot: unmarshal: %w", err)
	}
	return &snap, nil
}

func compress(data []byte, c Compression) ([]byte, error) {
	switch c {
	case None:
		return data, nil
	case Zstd:
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, err
		}
		defer enc.Close()
		return enc.EncodeAll(data, nil), nil
	case LZ4:
		var buf bytes.Buffer
		w := lz4.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("snapshot: unknown compression %v", c)
	}
}

func decompress(data []byte, c Compression) ([]byte, error) {
	switch c {
	case None:
		return data, nil
	case Zstd:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		return dec.DecodeAll(data, nil)
	case LZ4:
		return io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
	default:
		return nil, fmt.Errorf("snapshot: unknown compression %v", c)
	}
}
