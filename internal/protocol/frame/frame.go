package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/bkaradzic/go-lz4"
	"github.com/danmuck/sbewire/internal/protocol/schema"
	"github.com/rs/zerolog/log"
)

// PrefixLen is the fixed frame prefix: message header, body length, flags.
const (
	PrefixLen       = schema.HeaderLength + 4 + 1
	FlagLZ4   uint8 = 0x01
)

var (
	ErrShortPrefix  = errors.New("frame: short frame prefix")
	ErrBodyTooLarge = errors.New("frame: body too large")
	ErrUnknownFlags = errors.New("frame: unknown flags")
	ErrCorruptBody  = errors.New("frame: corrupt compressed body")
)

// Frame is one message on a stream: its identity header and its encoded body.
// Body is always the uncompressed message bytes.
type Frame struct {
	Header schema.Header
	Flags  uint8
	Body   []byte
}

// Limits constrains frame decode/encode memory use.
type Limits struct {
	MaxBodyBytes uint32
}

func DefaultLimits() Limits {
	return Limits{
		MaxBodyBytes: 8 * 1024 * 1024,
	}
}

func ReadFrame(r io.Reader, limits Limits) (Frame, error) {
	var prefix [PrefixLen]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return Frame{}, ErrShortPrefix
		}
		return Frame{}, err
	}

	h, bodyLen, flags, err := DecodePrefix(prefix[:])
	if err != nil {
		return Frame{}, err
	}
	if flags&^FlagLZ4 != 0 {
		return Frame{}, fmt.Errorf("%w: 0x%02x", ErrUnknownFlags, flags)
	}
	if bodyLen > limits.MaxBodyBytes {
		log.Debug().Uint32("body_len", bodyLen).Uint32("max", limits.MaxBodyBytes).Msg("frame.ReadFrame reject")
		return Frame{}, ErrBodyTooLarge
	}

	body := make([]byte, bodyLen)
	if bodyLen > 0 {
		if _, err := io.ReadFull(r, body); err != nil {
			return Frame{}, err
		}
	}

	if flags&FlagLZ4 != 0 {
		body, err = decompress(body, limits)
		if err != nil {
			return Frame{}, err
		}
	}

	return Frame{Header: h, Flags: flags, Body: body}, nil
}

func WriteFrame(w io.Writer, f Frame, limits Limits) error {
	if f.Flags&^FlagLZ4 != 0 {
		return fmt.Errorf("%w: 0x%02x", ErrUnknownFlags, f.Flags)
	}
	if uint64(len(f.Body)) > uint64(limits.MaxBodyBytes) {
		return ErrBodyTooLarge
	}
	body := f.Body
	if f.Flags&FlagLZ4 != 0 {
		compressed, err := lz4.Encode(nil, f.Body)
		if err != nil {
			return fmt.Errorf("frame: compress body: %w", err)
		}
		body = compressed
	}
	if uint64(len(body)) > uint64(limits.MaxBodyBytes) {
		return ErrBodyTooLarge
	}

	prefix, err := EncodePrefix(f.Header, uint32(len(body)), f.Flags)
	if err != nil {
		return err
	}
	if _, err := w.Write(prefix); err != nil {
		return err
	}
	if len(body) > 0 {
		if _, err := w.Write(body); err != nil {
			return err
		}
	}
	return nil
}

func EncodePrefix(h schema.Header, bodyLen uint32, flags uint8) ([]byte, error) {
	buf := make([]byte, PrefixLen)
	if err := schema.EncodeHeader(buf, 0, h); err != nil {
		return nil, err
	}
	binary.LittleEndian.PutUint32(buf[schema.HeaderLength:], bodyLen)
	buf[PrefixLen-1] = flags
	return buf, nil
}

func DecodePrefix(b []byte) (schema.Header, uint32, uint8, error) {
	if len(b) != PrefixLen {
		return schema.Header{}, 0, 0, fmt.Errorf("frame: invalid prefix length: %d", len(b))
	}
	h, err := schema.DecodeHeader(b, 0)
	if err != nil {
		return schema.Header{}, 0, 0, err
	}
	return h, binary.LittleEndian.Uint32(b[schema.HeaderLength:]), b[PrefixLen-1], nil
}

// decompress checks the size lz4 records in its own 4-byte prefix before
// allocating for it.
func decompress(body []byte, limits Limits) ([]byte, error) {
	if len(body) < 4 {
		return nil, ErrCorruptBody
	}
	if binary.LittleEndian.Uint32(body) > limits.MaxBodyBytes {
		return nil, ErrBodyTooLarge
	}
	out, err := lz4.Decode(nil, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptBody, err)
	}
	return out, nil
}
