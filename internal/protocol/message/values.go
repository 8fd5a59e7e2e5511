package message

import (
	"errors"
	"fmt"

	"github.com/danmuck/sbewire/internal/protocol"
	"github.com/danmuck/sbewire/internal/protocol/schema"
)

var ErrTrailingBytes = errors.New("message: payload not fully consumed by inner message")

// Barrier is the decoded form of a Barrier message. Scalars hold raw wire
// values, so null sentinels survive a round trip unchanged.
type Barrier struct {
	FromTaskNum    uint16
	ToTaskNum      uint16
	ReplicaVersion uint32
	Replica        string
}

func (b Barrier) Template() schema.Template {
	return schema.Barrier
}

// Size is the exact encoded length of b.
func (b Barrier) Size() int {
	return int(schema.Barrier.BlockLength) + schema.BarrierReplica.HeaderLength() + len(b.Replica)
}

// EncodeTo writes b at offset and returns the encoded length.
func (b Barrier) EncodeTo(buf []byte, offset int) (int, error) {
	if err := checkLength(schema.BarrierReplica, len(b.Replica)); err != nil {
		return 0, err
	}
	if err := fits(buf, offset, b.Size()); err != nil {
		return 0, err
	}
	var e BarrierEncoder
	e.Wrap(buf, offset).
		SetFromTaskNum(b.FromTaskNum).
		SetToTaskNum(b.ToTaskNum).
		SetReplicaVersion(b.ReplicaVersion)
	if err := e.SetReplica(b.Replica); err != nil {
		return 0, err
	}
	return e.EncodedLength(), nil
}

// DecodeBarrier reads a Barrier at offset and returns it with its encoded
// length.
func DecodeBarrier(buf []byte, offset, actingBlockLength, actingVersion int) (Barrier, int, error) {
	if err := fits(buf, offset, max(actingBlockLength, int(schema.Barrier.BlockLength))); err != nil {
		return Barrier{}, 0, err
	}
	var d BarrierDecoder
	d.Wrap(buf, offset, actingBlockLength, actingVersion)
	var b Barrier
	b.FromTaskNum, _ = d.FromTaskNum()
	b.ToTaskNum, _ = d.ToTaskNum()
	b.ReplicaVersion, _ = d.ReplicaVersion()
	replica, err := d.Replica()
	if err != nil {
		return Barrier{}, 0, err
	}
	b.Replica = replica
	return b, d.EncodedLength(), nil
}

// MessageContainer is the decoded form of a MessageContainer message.
type MessageContainer struct {
	ReplicaVersion uint32
	FromPeerNum    uint16
	ToTaskNums     [schema.ToTaskNumsLength]uint16
	Payload        []byte
}

func (m MessageContainer) Template() schema.Template {
	return schema.MessageContainer
}

func (m MessageContainer) Size() int {
	return int(schema.MessageContainer.BlockLength) + schema.ContainerPayload.HeaderLength() + len(m.Payload)
}

func (m MessageContainer) EncodeTo(buf []byte, offset int) (int, error) {
	if err := checkLength(schema.ContainerPayload, len(m.Payload)); err != nil {
		return 0, err
	}
	if err := fits(buf, offset, m.Size()); err != nil {
		return 0, err
	}
	var e MessageContainerEncoder
	m.encodeFixed(e.Wrap(buf, offset))
	if err := e.PutPayload(m.Payload); err != nil {
		return 0, err
	}
	return e.EncodedLength(), nil
}

func (m MessageContainer) encodeFixed(e *MessageContainerEncoder) {
	e.SetReplicaVersion(m.ReplicaVersion).SetFromPeerNum(m.FromPeerNum)
	for i, v := range m.ToTaskNums {
		// index is always within the compiled array length
		_ = e.SetToTaskNums(i, v)
	}
}

// DecodeMessageContainer reads a MessageContainer at offset. The payload is
// copied out of buf.
func DecodeMessageContainer(buf []byte, offset, actingBlockLength, actingVersion int) (MessageContainer, int, error) {
	var d MessageContainerDecoder
	m, err := decodeContainerFixed(&d, buf, offset, actingBlockLength, actingVersion)
	if err != nil {
		return MessageContainer{}, 0, err
	}
	n, err := d.PayloadLength()
	if err != nil {
		return MessageContainer{}, 0, err
	}
	m.Payload = make([]byte, n)
	if _, err := d.GetPayload(m.Payload); err != nil {
		return MessageContainer{}, 0, err
	}
	return m, d.EncodedLength(), nil
}

func decodeContainerFixed(d *MessageContainerDecoder, buf []byte, offset, actingBlockLength, actingVersion int) (MessageContainer, error) {
	if err := fits(buf, offset, max(actingBlockLength, int(schema.MessageContainer.BlockLength))); err != nil {
		return MessageContainer{}, err
	}
	d.Wrap(buf, offset, actingBlockLength, actingVersion)
	var m MessageContainer
	m.ReplicaVersion, _ = d.ReplicaVersion()
	m.FromPeerNum, _ = d.FromPeerNum()
	for i := range m.ToTaskNums {
		v, err := d.ToTaskNums(i)
		if err != nil {
			return MessageContainer{}, err
		}
		m.ToTaskNums[i] = v
	}
	return m, nil
}

func checkLength(f schema.Field, n int) error {
	if uint64(n) > f.Max {
		return fmt.Errorf("%w: field=%s length=%d max=%d", protocol.ErrLengthOutOfRange, f.Name, n, f.Max)
	}
	return nil
}

func fits(buf []byte, offset, n int) error {
	if offset < 0 || n > len(buf)-offset {
		return fmt.Errorf("%w: offset=%d need=%d len=%d", protocol.ErrBufferFault, offset, n, len(buf))
	}
	return nil
}
