package message

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/danmuck/sbewire/internal/protocol"
	"github.com/danmuck/sbewire/internal/protocol/schema"
	"github.com/danmuck/sbewire/internal/testutil/testlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exampleEnvelope() Envelope {
	return Envelope{
		Container: MessageContainer{
			ReplicaVersion: 42,
			FromPeerNum:    3,
			ToTaskNums:     [schema.ToTaskNumsLength]uint16{1, 2},
		},
		Barrier: Barrier{FromTaskNum: 5, ToTaskNum: 9, ReplicaVersion: 42, Replica: "r1"},
	}
}

func TestEnvelopeWireLayout(t *testing.T) {
	testlog.Start(t)
	buf, err := Marshal(exampleEnvelope())
	require.NoError(t, err)

	want := []byte{
		0x2A, 0, 0, 0, // replicaVersion
		3, 0, // fromPeerNum
		1, 0, 2, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, // toTaskNums
		12, 0, 0, 0, // payload length
		5, 0, 9, 0, 0x2A, 0, 0, 0, // barrier block
		2, 0, 'r', '1', // replica
	}
	assert.Equal(t, want, buf)
}

func TestNestedBarrierThroughViews(t *testing.T) {
	testlog.Start(t)
	buf := make([]byte, 64)
	const offset = 5

	var e MessageContainerEncoder
	e.Wrap(buf, offset).SetReplicaVersion(42).SetFromPeerNum(3)
	require.NoError(t, e.SetToTaskNums(0, 1))
	require.NoError(t, e.SetToTaskNums(1, 2))
	require.NoError(t, EmbedBarrier(&e, Barrier{FromTaskNum: 5, ToTaskNum: 9, ReplicaVersion: 42, Replica: "r1"}))
	require.Equal(t, 22+4+12, e.EncodedLength())
	require.Equal(t, offset+e.EncodedLength(), e.Limit())

	var d MessageContainerDecoder
	d.Wrap(buf, offset, 22, 0)
	rv, ok := d.ReplicaVersion()
	require.True(t, ok)
	assert.Equal(t, uint32(42), rv)
	peer, ok := d.FromPeerNum()
	require.True(t, ok)
	assert.Equal(t, uint16(3), peer)
	for i := 0; i < d.ToTaskNumsLength(); i++ {
		v, err := d.ToTaskNums(i)
		require.NoError(t, err)
		want := uint16(0)
		if i < 2 {
			want = uint16(i + 1)
		}
		assert.Equal(t, want, v, "toTaskNums[%d]", i)
	}

	b, region, err := ExtractBarrier(&d)
	require.NoError(t, err)
	assert.Len(t, region, 12)
	assert.Equal(t, Barrier{FromTaskNum: 5, ToTaskNum: 9, ReplicaVersion: 42, Replica: "r1"}, b)
	assert.Equal(t, e.EncodedLength(), d.EncodedLength())
}

func TestEnvelopeRoundTrip(t *testing.T) {
	testlog.Start(t)
	env := exampleEnvelope()
	buf, err := Marshal(env)
	require.NoError(t, err)

	got, n, err := DecodeEnvelope(buf, 0, 22, 0)
	require.NoError(t, err)
	assert.Equal(t, len(buf), n)
	assert.Equal(t, env.Barrier, got.Barrier)
	assert.Equal(t, env.Container.ToTaskNums, got.Container.ToTaskNums)
	assert.Equal(t, buf[26:], got.Container.Payload)

	buf[26] = 0xAA
	assert.NotEqual(t, byte(0xAA), got.Container.Payload[0], "payload is a copy")
}

func TestBarrierNullSentinelsSurvive(t *testing.T) {
	testlog.Start(t)
	buf := make([]byte, 16)
	var e BarrierEncoder
	e.Wrap(buf, 0).SetFromTaskNumNull().SetToTaskNum(0xFFFE).SetReplicaVersionNull()
	require.NoError(t, e.SetReplica(""))
	assert.Equal(t, 10, e.EncodedLength())

	var d BarrierDecoder
	d.Wrap(buf, 0, 8, 0)
	v, ok := d.FromTaskNum()
	assert.False(t, ok)
	assert.Equal(t, uint16(0xFFFF), v)
	v, ok = d.ToTaskNum()
	assert.True(t, ok)
	assert.Equal(t, uint16(0xFFFE), v)
	rv, ok := d.ReplicaVersion()
	assert.False(t, ok)
	assert.Equal(t, uint32(0xFFFFFFFE), rv)

	b, _, err := DecodeBarrier(buf, 0, 8, 0)
	require.NoError(t, err)
	assert.Equal(t, uint16(0xFFFF), b.FromTaskNum)
	assert.Equal(t, uint32(0xFFFFFFFE), b.ReplicaVersion)
}

func TestContainerNullSentinels(t *testing.T) {
	testlog.Start(t)
	buf := make([]byte, 32)
	var e MessageContainerEncoder
	e.Wrap(buf, 0).SetReplicaVersionNull().SetFromPeerNumNull()
	require.NoError(t, e.PutPayload(nil))

	var d MessageContainerDecoder
	d.Wrap(buf, 0, 22, 0)
	_, ok := d.ReplicaVersion()
	assert.False(t, ok)
	_, ok = d.FromPeerNum()
	assert.False(t, ok)
	assert.Equal(t, []byte{0xFE, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}, buf[:6])
}

func TestToTaskNumsIndexErrors(t *testing.T) {
	testlog.Start(t)
	buf := make([]byte, 32)
	var e MessageContainerEncoder
	e.Wrap(buf, 0)
	require.ErrorIs(t, e.SetToTaskNums(8, 1), protocol.ErrIndexOutOfRange)
	require.ErrorIs(t, e.SetToTaskNums(-1, 1), protocol.ErrIndexOutOfRange)

	var d MessageContainerDecoder
	d.Wrap(buf, 0, 22, 0)
	_, err := d.ToTaskNums(8)
	require.ErrorIs(t, err, protocol.ErrIndexOutOfRange)
}

func TestReplicaLengthBoundary(t *testing.T) {
	testlog.Start(t)
	b := Barrier{Replica: strings.Repeat("a", 65534)}
	buf, err := Marshal(b)
	require.NoError(t, err)
	assert.Len(t, buf, 8+2+65534)

	got, n, err := DecodeBarrier(buf, 0, 8, 0)
	require.NoError(t, err)
	assert.Equal(t, len(buf), n)
	assert.Equal(t, b.Replica, got.Replica)

	b.Replica += "a"
	big := make([]byte, b.Size())
	_, err = b.EncodeTo(big, 0)
	require.ErrorIs(t, err, protocol.ErrLengthOutOfRange)
	assert.Equal(t, make([]byte, len(big)), big, "nothing written")
}

func TestEncodeIntoShortBufferIsFault(t *testing.T) {
	testlog.Start(t)
	b := Barrier{FromTaskNum: 1, Replica: "abc"}
	buf := make([]byte, b.Size()-1)
	_, err := b.EncodeTo(buf, 0)
	require.ErrorIs(t, err, protocol.ErrBufferFault)
	assert.Equal(t, make([]byte, len(buf)), buf)

	_, err = exampleEnvelope().EncodeTo(make([]byte, 37), 0)
	require.ErrorIs(t, err, protocol.ErrBufferFault)

	_, _, err = DecodeBarrier(make([]byte, 7), 0, 8, 0)
	require.ErrorIs(t, err, protocol.ErrBufferFault)
}

func TestTruncatedPayloadReadAdvancesFully(t *testing.T) {
	testlog.Start(t)
	m := MessageContainer{Payload: []byte("0123456789")}
	buf, err := Marshal(m)
	require.NoError(t, err)

	var d MessageContainerDecoder
	d.Wrap(buf, 0, 22, 0)
	n, err := d.PayloadLength()
	require.NoError(t, err)
	require.Equal(t, 10, n)

	dst := make([]byte, 4)
	copied, err := d.GetPayload(dst)
	require.NoError(t, err)
	assert.Equal(t, 4, copied)
	assert.Equal(t, "0123", string(dst))
	assert.Equal(t, len(buf), d.EncodedLength())
}

func TestLongerActingBlockIsSkipped(t *testing.T) {
	testlog.Start(t)
	// A newer writer appended two bytes to the Barrier block.
	buf := []byte{
		1, 0, 2, 0, 3, 0, 0, 0, 0xEE, 0xEE,
		1, 0, 'z',
	}
	b, n, err := DecodeBarrier(buf, 0, 10, 1)
	require.NoError(t, err)
	assert.Equal(t, Barrier{FromTaskNum: 1, ToTaskNum: 2, ReplicaVersion: 3, Replica: "z"}, b)
	assert.Equal(t, len(buf), n)

	var d BarrierDecoder
	d.Wrap(buf, 0, 10, 1)
	assert.Equal(t, 10, d.ActingBlockLength())
	assert.Equal(t, 1, d.ActingVersion())
	assert.Equal(t, 10, d.Limit())
}

func TestInvalidUTF8Replica(t *testing.T) {
	testlog.Start(t)
	buf := make([]byte, 16)
	var e BarrierEncoder
	e.Wrap(buf, 0)
	require.NoError(t, e.PutReplica([]byte{0xC3}))

	var d BarrierDecoder
	d.Wrap(buf, 0, 8, 0)
	_, err := d.Replica()
	require.ErrorIs(t, err, protocol.ErrInvalidUTF8)
	assert.Equal(t, 11, d.EncodedLength())

	_, _, err = DecodeBarrier(buf, 0, 8, 0)
	require.ErrorIs(t, err, protocol.ErrInvalidUTF8)
}

func TestExtractBarrierRejectsTrailingBytes(t *testing.T) {
	testlog.Start(t)
	inner, err := Marshal(Barrier{Replica: "x"})
	require.NoError(t, err)
	m := MessageContainer{Payload: append(inner, 0x00)}
	buf, err := Marshal(m)
	require.NoError(t, err)

	var d MessageContainerDecoder
	d.Wrap(buf, 0, 22, 0)
	_, _, err = ExtractBarrier(&d)
	require.ErrorIs(t, err, ErrTrailingBytes)

	_, _, err = DecodeEnvelope(buf, 0, 22, 0)
	require.ErrorIs(t, err, ErrTrailingBytes)
}

func TestDecodeBodyDispatch(t *testing.T) {
	testlog.Start(t)
	b := Barrier{FromTaskNum: 7, Replica: "b"}
	body, err := Marshal(b)
	require.NoError(t, err)
	got, err := DecodeBody(schema.Barrier.Header(), body)
	require.NoError(t, err)
	assert.Equal(t, b, got)

	env := exampleEnvelope()
	body, err = Marshal(env)
	require.NoError(t, err)
	got, err = DecodeBody(schema.MessageContainer.Header(), body)
	require.NoError(t, err)
	c, ok := got.(MessageContainer)
	require.True(t, ok)
	assert.Equal(t, uint16(3), c.FromPeerNum)
	assert.True(t, bytes.Equal(body[26:], c.Payload))

	_, err = DecodeBody(schema.Header{BlockLength: 8, TemplateID: 99, SchemaID: 1}, body)
	var verr schema.ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestVarBytesViews(t *testing.T) {
	testlog.Start(t)
	buf := make([]byte, 8)
	var e VarBytesEncoder
	e.Wrap(buf, 2).SetLength(300)
	assert.Equal(t, -1, e.EncodedLength())
	assert.Equal(t, []byte{0, 0, 0x2C, 0x01, 0, 0}, buf[:6])

	var d VarBytesDecoder
	d.Wrap(buf, 2)
	assert.Equal(t, uint32(300), d.Length())
	assert.Equal(t, schema.VarBytesEncodedLength, d.EncodedLength())
}

func TestIndependentViewsOverDisjointRegions(t *testing.T) {
	testlog.Start(t)
	a := Barrier{FromTaskNum: 1, Replica: "left"}
	b := Barrier{FromTaskNum: 2, Replica: "right"}
	buf := make([]byte, a.Size()+b.Size())

	na, err := a.EncodeTo(buf, 0)
	require.NoError(t, err)
	nb, err := b.EncodeTo(buf, na)
	require.NoError(t, err)

	gotB, _, err := DecodeBarrier(buf, na, 8, 0)
	require.NoError(t, err)
	gotA, _, err := DecodeBarrier(buf, 0, 8, 0)
	require.NoError(t, err)
	assert.Equal(t, a, gotA)
	assert.Equal(t, b, gotB)
	assert.Equal(t, len(buf), na+nb)
}

func TestScalarMaximumsRoundTrip(t *testing.T) {
	testlog.Start(t)
	env := Envelope{
		Container: MessageContainer{
			ReplicaVersion: 0xFFFFFFFD,
			FromPeerNum:    0xFFFE,
			ToTaskNums:     [schema.ToTaskNumsLength]uint16{0xFFFE, 0, 0xFFFE, 1, 0xFFFE, 2, 0xFFFE, 0xFFFE},
		},
		Barrier: Barrier{FromTaskNum: 0xFFFE, ToTaskNum: 0xFFFE, ReplicaVersion: 0xFFFFFFFD, Replica: "max"},
	}
	buf, err := Marshal(env)
	require.NoError(t, err)

	var d MessageContainerDecoder
	d.Wrap(buf, 0, 22, 0)
	rv, ok := d.ReplicaVersion()
	assert.True(t, ok, "0xFFFFFFFD is a real value")
	assert.Equal(t, uint32(0xFFFFFFFD), rv)
	peer, ok := d.FromPeerNum()
	assert.True(t, ok, "0xFFFE is a real value")
	assert.Equal(t, uint16(0xFFFE), peer)

	got, _, err := DecodeEnvelope(buf, 0, 22, 0)
	require.NoError(t, err)
	assert.Equal(t, env.Barrier, got.Barrier)
	assert.Equal(t, env.Container.ToTaskNums, got.Container.ToTaskNums)
	assert.Equal(t, env.Container.ReplicaVersion, got.Container.ReplicaVersion)
	assert.Equal(t, env.Container.FromPeerNum, got.Container.FromPeerNum)
}

func TestDecodePayloadBarrier(t *testing.T) {
	testlog.Start(t)
	inner, err := Marshal(Barrier{FromTaskNum: 4, Replica: "p"})
	require.NoError(t, err)

	b, err := DecodePayloadBarrier(inner)
	require.NoError(t, err)
	assert.Equal(t, uint16(4), b.FromTaskNum)

	_, err = DecodePayloadBarrier(append(inner, 0x00))
	require.ErrorIs(t, err, ErrTrailingBytes)
}
