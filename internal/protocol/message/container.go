package message

import (
	"github.com/danmuck/sbewire/internal/protocol"
	"github.com/danmuck/sbewire/internal/protocol/schema"
)

// MessageContainerEncoder writes the routing envelope: replica version, sender
// peer, a fixed array of destination tasks and an opaque payload.
type MessageContainerEncoder struct {
	view
}

func (e *MessageContainerEncoder) Wrap(buf []byte, offset int) *MessageContainerEncoder {
	e.wrap(buf, offset, int(schema.MessageContainer.BlockLength))
	return e
}

func (e *MessageContainerEncoder) Template() schema.Template {
	return schema.MessageContainer
}

func (e *MessageContainerEncoder) SetReplicaVersion(v uint32) *MessageContainerEncoder {
	e.putU32(schema.ContainerReplicaVersion, v)
	return e
}

func (e *MessageContainerEncoder) SetReplicaVersionNull() *MessageContainerEncoder {
	return e.SetReplicaVersion(uint32(schema.ContainerReplicaVersion.Null))
}

func (e *MessageContainerEncoder) SetFromPeerNum(v uint16) *MessageContainerEncoder {
	e.putU16(schema.ContainerFromPeerNum, v)
	return e
}

func (e *MessageContainerEncoder) SetFromPeerNumNull() *MessageContainerEncoder {
	return e.SetFromPeerNum(uint16(schema.ContainerFromPeerNum.Null))
}

// SetToTaskNums writes one element of the destination task array.
func (e *MessageContainerEncoder) SetToTaskNums(index int, v uint16) error {
	f := schema.ContainerToTaskNums
	return protocol.PutUint16ArrayAt(e.buf, e.pos(f), f.ArrayLength, index, v)
}

func (e *MessageContainerEncoder) PutPayload(src []byte) error {
	return protocol.PutVar(e.buf, &e.cur, schema.ContainerPayload.Var, src)
}

func (e *MessageContainerEncoder) SetPayload(s string) error {
	return protocol.PutVarString(e.buf, &e.cur, schema.ContainerPayload.Var, s)
}

// PayloadOffset is where payload bytes start if written in place.
func (e *MessageContainerEncoder) PayloadOffset() int {
	return schema.ContainerPayload.Var.DataOffset(&e.cur)
}

// CommitPayload finalizes a payload of n bytes already written at
// PayloadOffset.
func (e *MessageContainerEncoder) CommitPayload(n int) error {
	return protocol.CommitVar(e.buf, &e.cur, schema.ContainerPayload.Var, n)
}

// PayloadFrom lets encode write the payload in place at PayloadOffset and then
// commits the length it reports. Nothing is committed if encode fails.
func (e *MessageContainerEncoder) PayloadFrom(encode func(buf []byte, offset int) (int, error)) error {
	n, err := encode(e.buf, e.PayloadOffset())
	if err != nil {
		return err
	}
	return e.CommitPayload(n)
}

type MessageContainerDecoder struct {
	decoderView
}

func (d *MessageContainerDecoder) Wrap(buf []byte, offset, actingBlockLength, actingVersion int) *MessageContainerDecoder {
	d.wrapActing(buf, offset, actingBlockLength, actingVersion)
	return d
}

func (d *MessageContainerDecoder) Template() schema.Template {
	return schema.MessageContainer
}

func (d *MessageContainerDecoder) ReplicaVersion() (uint32, bool) {
	return d.opt32(schema.ContainerReplicaVersion)
}

func (d *MessageContainerDecoder) FromPeerNum() (uint16, bool) {
	return d.opt16(schema.ContainerFromPeerNum)
}

// ToTaskNums returns one raw element of the destination task array.
func (d *MessageContainerDecoder) ToTaskNums(index int) (uint16, error) {
	f := schema.ContainerToTaskNums
	return protocol.Uint16ArrayAt(d.buf, d.pos(f), f.ArrayLength, index)
}

func (d *MessageContainerDecoder) ToTaskNumsLength() int {
	return schema.ContainerToTaskNums.ArrayLength
}

func (d *MessageContainerDecoder) PayloadLength() (int, error) {
	return protocol.VarLength(d.buf, &d.cur, schema.ContainerPayload.Var)
}

func (d *MessageContainerDecoder) GetPayload(dst []byte) (int, error) {
	return protocol.GetVar(d.buf, &d.cur, schema.ContainerPayload.Var, dst)
}

func (d *MessageContainerDecoder) Payload() (string, error) {
	return protocol.GetVarString(d.buf, &d.cur, schema.ContainerPayload.Var)
}

// PayloadRegion consumes the payload and returns it as a sub-slice of the
// wrapped buffer, ready for an inner decoder to wrap at offset 0.
func (d *MessageContainerDecoder) PayloadRegion() ([]byte, error) {
	return protocol.VarRegion(d.buf, &d.cur, schema.ContainerPayload.Var)
}
