package message

import (
	"github.com/danmuck/sbewire/internal/protocol"
	"github.com/danmuck/sbewire/internal/protocol/schema"
)

type view struct {
	buf []byte
	cur protocol.Cursor
}

func (v *view) wrap(buf []byte, offset, blockLength int) {
	v.buf = buf
	v.cur = protocol.NewCursor(offset, blockLength)
}

// Buffer returns the wrapped buffer.
func (v *view) Buffer() []byte {
	return v.buf
}

func (v *view) Offset() int {
	return v.cur.Offset()
}

func (v *view) Limit() int {
	return v.cur.Limit()
}

func (v *view) SetLimit(limit int) {
	v.cur.SetLimit(limit)
}

// EncodedLength is limit - offset; complete only after every variable-length
// field has been visited.
func (v *view) EncodedLength() int {
	return v.cur.EncodedLength()
}

func (v *view) pos(f schema.Field) int {
	return v.cur.Offset() + f.Offset
}

func (v *view) u16(f schema.Field) uint16 {
	return protocol.Uint16At(v.buf, v.pos(f))
}

func (v *view) u32(f schema.Field) uint32 {
	return protocol.Uint32At(v.buf, v.pos(f))
}

func (v *view) putU16(f schema.Field, x uint16) {
	protocol.PutUint16At(v.buf, v.pos(f), x)
}

func (v *view) putU32(f schema.Field, x uint32) {
	protocol.PutUint32At(v.buf, v.pos(f), x)
}

func (v *view) opt16(f schema.Field) (uint16, bool) {
	x := v.u16(f)
	return x, !f.IsNull(uint64(x))
}

func (v *view) opt32(f schema.Field) (uint32, bool) {
	x := v.u32(f)
	return x, !f.IsNull(uint64(x))
}

type decoderView struct {
	view
	actingBlockLength int
	actingVersion     int
}

func (d *decoderView) wrapActing(buf []byte, offset, actingBlockLength, actingVersion int) {
	d.wrap(buf, offset, actingBlockLength)
	d.actingBlockLength = actingBlockLength
	d.actingVersion = actingVersion
}

// ActingBlockLength is the fixed block length found on the wire.
func (d *decoderView) ActingBlockLength() int {
	return d.actingBlockLength
}

// ActingVersion is passed through from wrap and never interpreted.
func (d *decoderView) ActingVersion() int {
	return d.actingVersion
}
