package message

import (
	"fmt"

	"github.com/danmuck/sbewire/internal/protocol/schema"
)

// EmbedBarrier encodes b in place as the payload of the container wrapped by
// e. The container's fixed fields may be set before or after.
func EmbedBarrier(e *MessageContainerEncoder, b Barrier) error {
	return e.PayloadFrom(b.EncodeTo)
}

// ExtractBarrier consumes the payload of the container wrapped by d and
// decodes it as a Barrier using the compiled block length and version. The
// inner message must account for every payload byte.
func ExtractBarrier(d *MessageContainerDecoder) (Barrier, []byte, error) {
	region, err := d.PayloadRegion()
	if err != nil {
		return Barrier{}, nil, err
	}
	b, err := DecodePayloadBarrier(region)
	if err != nil {
		return Barrier{}, region, err
	}
	return b, region, nil
}

// DecodePayloadBarrier decodes payload as exactly one Barrier at the compiled
// block length and version.
func DecodePayloadBarrier(payload []byte) (Barrier, error) {
	b, n, err := DecodeBarrier(payload, 0, int(schema.Barrier.BlockLength), int(schema.Barrier.SchemaVersion))
	if err != nil {
		return Barrier{}, err
	}
	if n != len(payload) {
		return Barrier{}, fmt.Errorf("%w: consumed=%d payload=%d", ErrTrailingBytes, n, len(payload))
	}
	return b, nil
}

// Envelope is a MessageContainer carrying an encoded Barrier as its payload.
// Container.Payload is ignored when encoding and holds a copy of the raw
// payload after decoding.
type Envelope struct {
	Container MessageContainer
	Barrier   Barrier
}

func (env Envelope) Template() schema.Template {
	return schema.MessageContainer
}

func (env Envelope) Size() int {
	return int(schema.MessageContainer.BlockLength) + schema.ContainerPayload.HeaderLength() + env.Barrier.Size()
}

func (env Envelope) EncodeTo(buf []byte, offset int) (int, error) {
	if err := checkLength(schema.BarrierReplica, len(env.Barrier.Replica)); err != nil {
		return 0, err
	}
	if err := fits(buf, offset, env.Size()); err != nil {
		return 0, err
	}
	var e MessageContainerEncoder
	env.Container.encodeFixed(e.Wrap(buf, offset))
	if err := EmbedBarrier(&e, env.Barrier); err != nil {
		return 0, err
	}
	return e.EncodedLength(), nil
}

// DecodeEnvelope reads a MessageContainer at offset and decodes its payload
// as a Barrier.
func DecodeEnvelope(buf []byte, offset, actingBlockLength, actingVersion int) (Envelope, int, error) {
	var d MessageContainerDecoder
	c, err := decodeContainerFixed(&d, buf, offset, actingBlockLength, actingVersion)
	if err != nil {
		return Envelope{}, 0, err
	}
	b, region, err := ExtractBarrier(&d)
	if err != nil {
		return Envelope{}, 0, err
	}
	c.Payload = append([]byte(nil), region...)
	return Envelope{Container: c, Barrier: b}, d.EncodedLength(), nil
}
