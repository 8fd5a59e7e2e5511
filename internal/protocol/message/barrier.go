package message

import (
	"github.com/danmuck/sbewire/internal/protocol"
	"github.com/danmuck/sbewire/internal/protocol/schema"
)

// BarrierEncoder writes a Barrier: two task numbers and a replica version in
// the fixed block, followed by the replica name.
type BarrierEncoder struct {
	view
}

// Wrap binds the encoder to buf at offset using the compiled block length.
func (e *BarrierEncoder) Wrap(buf []byte, offset int) *BarrierEncoder {
	e.wrap(buf, offset, int(schema.Barrier.BlockLength))
	return e
}

func (e *BarrierEncoder) Template() schema.Template {
	return schema.Barrier
}

func (e *BarrierEncoder) SetFromTaskNum(v uint16) *BarrierEncoder {
	e.putU16(schema.BarrierFromTaskNum, v)
	return e
}

func (e *BarrierEncoder) SetFromTaskNumNull() *BarrierEncoder {
	return e.SetFromTaskNum(uint16(schema.BarrierFromTaskNum.Null))
}

func (e *BarrierEncoder) SetToTaskNum(v uint16) *BarrierEncoder {
	e.putU16(schema.BarrierToTaskNum, v)
	return e
}

func (e *BarrierEncoder) SetToTaskNumNull() *BarrierEncoder {
	return e.SetToTaskNum(uint16(schema.BarrierToTaskNum.Null))
}

func (e *BarrierEncoder) SetReplicaVersion(v uint32) *BarrierEncoder {
	e.putU32(schema.BarrierReplicaVersion, v)
	return e
}

func (e *BarrierEncoder) SetReplicaVersionNull() *BarrierEncoder {
	return e.SetReplicaVersion(uint32(schema.BarrierReplicaVersion.Null))
}

// PutReplica appends the replica field from raw bytes.
func (e *BarrierEncoder) PutReplica(src []byte) error {
	return protocol.PutVar(e.buf, &e.cur, schema.BarrierReplica.Var, src)
}

// SetReplica appends the replica field as UTF-8 text.
func (e *BarrierEncoder) SetReplica(s string) error {
	return protocol.PutVarString(e.buf, &e.cur, schema.BarrierReplica.Var, s)
}

// BarrierDecoder reads a Barrier.
type BarrierDecoder struct {
	decoderView
}

// Wrap binds the decoder to buf at offset. actingBlockLength seeds the cursor.
func (d *BarrierDecoder) Wrap(buf []byte, offset, actingBlockLength, actingVersion int) *BarrierDecoder {
	d.wrapActing(buf, offset, actingBlockLength, actingVersion)
	return d
}

func (d *BarrierDecoder) Template() schema.Template {
	return schema.Barrier
}

// FromTaskNum returns the value and false when it holds the null sentinel.
func (d *BarrierDecoder) FromTaskNum() (uint16, bool) {
	return d.opt16(schema.BarrierFromTaskNum)
}

func (d *BarrierDecoder) ToTaskNum() (uint16, bool) {
	return d.opt16(schema.BarrierToTaskNum)
}

func (d *BarrierDecoder) ReplicaVersion() (uint32, bool) {
	return d.opt32(schema.BarrierReplicaVersion)
}

// ReplicaLength peeks at the replica length without consuming the field.
func (d *BarrierDecoder) ReplicaLength() (int, error) {
	return protocol.VarLength(d.buf, &d.cur, schema.BarrierReplica.Var)
}

// GetReplica copies up to len(dst) replica bytes and consumes the field.
func (d *BarrierDecoder) GetReplica(dst []byte) (int, error) {
	return protocol.GetVar(d.buf, &d.cur, schema.BarrierReplica.Var, dst)
}

// Replica consumes the field as UTF-8 text.
func (d *BarrierDecoder) Replica() (string, error) {
	return protocol.GetVarString(d.buf, &d.cur, schema.BarrierReplica.Var)
}
