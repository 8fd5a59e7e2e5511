package schema

import (
	"errors"

	"github.com/danmuck/sbewire/internal/protocol"
)

// HeaderLength is the encoded size of a message header.
const HeaderLength = 8

var ErrShortHeader = errors.New("schema: short message header")

// Header carries a message's identity ahead of its fixed block. Framing layers
// use it to pick a decoder; the codec itself never reads it.
type Header struct {
	BlockLength uint16
	TemplateID  uint16
	SchemaID    uint16
	Version     uint16
}

// EncodeHeader writes h little-endian at offset.
func EncodeHeader(buf []byte, offset int, h Header) error {
	if offset < 0 || len(buf)-offset < HeaderLength {
		return ErrShortHeader
	}
	protocol.PutUint16At(buf, offset+0, h.BlockLength)
	protocol.PutUint16At(buf, offset+2, h.TemplateID)
	protocol.PutUint16At(buf, offset+4, h.SchemaID)
	protocol.PutUint16At(buf, offset+6, h.Version)
	return nil
}

// DecodeHeader reads a header at offset.
func DecodeHeader(buf []byte, offset int) (Header, error) {
	if offset < 0 || len(buf)-offset < HeaderLength {
		return Header{}, ErrShortHeader
	}
	return Header{
		BlockLength: protocol.Uint16At(buf, offset+0),
		TemplateID:  protocol.Uint16At(buf, offset+2),
		SchemaID:    protocol.Uint16At(buf, offset+4),
		Version:     protocol.Uint16At(buf, offset+6),
	}, nil
}
