package message

import (
	"github.com/danmuck/sbewire/internal/protocol"
	"github.com/danmuck/sbewire/internal/protocol/schema"
)

// VarBytesEncoder writes the length word of a 4-byte-header variable field
// directly at offset. It has no cursor of its own.
type VarBytesEncoder struct {
	buf    []byte
	offset int
}

func (e *VarBytesEncoder) Wrap(buf []byte, offset int) *VarBytesEncoder {
	e.buf = buf
	e.offset = offset
	return e
}

// EncodedLength is always schema.VarBytesEncodedLength: the composite is
// variable-sized.
func (e *VarBytesEncoder) EncodedLength() int {
	return schema.VarBytesEncodedLength
}

func (e *VarBytesEncoder) SetLength(v uint32) *VarBytesEncoder {
	protocol.PutUint32At(e.buf, e.offset+schema.VarBytesLength.Offset, v)
	return e
}

type VarBytesDecoder struct {
	buf    []byte
	offset int
}

func (d *VarBytesDecoder) Wrap(buf []byte, offset int) *VarBytesDecoder {
	d.buf = buf
	d.offset = offset
	return d
}

func (d *VarBytesDecoder) EncodedLength() int {
	return schema.VarBytesEncodedLength
}

func (d *VarBytesDecoder) Length() uint32 {
	return protocol.Uint32At(d.buf, d.offset+schema.VarBytesLength.Offset)
}
