// Package batch encodes and decodes many envelopes concurrently. Every item
// owns a disjoint region of one shared buffer and gets its own codec view, so
// no view is ever shared between goroutines.
package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/danmuck/sbewire/internal/observability"
	"github.com/danmuck/sbewire/internal/protocol/message"
	"github.com/danmuck/sbewire/internal/protocol/schema"
	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog/log"
)

// Region is one message's byte range within a batch buffer.
type Region struct {
	Offset int
	Length int
}

func (r Region) end() int {
	return r.Offset + r.Length
}

type Codec struct {
	pool *ants.Pool
}

func New(workers int) (*Codec, error) {
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("batch: create pool: %w", err)
	}
	return &Codec{pool: pool}, nil
}

// Release stops the worker pool.
func (c *Codec) Release() {
	c.pool.Release()
}

// Layout places items back to back and returns their regions and total size.
func Layout(items []message.Envelope) ([]Region, int) {
	regions := make([]Region, len(items))
	off := 0
	for i, item := range items {
		regions[i] = Region{Offset: off, Length: item.Size()}
		off += regions[i].Length
	}
	return regions, off
}

// EncodeEnvelopes encodes items into one buffer laid out by Layout.
func (c *Codec) EncodeEnvelopes(ctx context.Context, items []message.Envelope) ([]byte, []Region, error) {
	start := time.Now()
	regions, total := Layout(items)
	buf := make([]byte, total)

	err := c.run(ctx, len(items), func(i int) error {
		r := regions[i]
		n, err := items[i].EncodeTo(buf[r.Offset:r.end():r.end()], 0)
		if err != nil {
			observability.RecordError(observability.DirectionEncode, err)
			return err
		}
		observability.RecordMessage(schema.TemplateMessageContainer, observability.DirectionEncode, n)
		return nil
	})
	observability.RecordBatch(observability.DirectionEncode, time.Since(start))
	if err != nil {
		return nil, nil, err
	}
	log.Debug().Int("items", len(items)).Int("bytes", total).Msg("batch.EncodeEnvelopes")
	return buf, regions, nil
}

// DecodeEnvelopes decodes each region of buf as an envelope.
func (c *Codec) DecodeEnvelopes(ctx context.Context, buf []byte, regions []Region) ([]message.Envelope, error) {
	start := time.Now()
	out := make([]message.Envelope, len(regions))
	blockLength := int(schema.MessageContainer.BlockLength)
	version := int(schema.MessageContainer.SchemaVersion)

	err := c.run(ctx, len(regions), func(i int) error {
		r := regions[i]
		if r.Offset < 0 || r.Length < 0 || r.end() > len(buf) {
			return fmt.Errorf("batch: region %d outside buffer: offset=%d length=%d len=%d", i, r.Offset, r.Length, len(buf))
		}
		env, n, err := message.DecodeEnvelope(buf[r.Offset:r.end():r.end()], 0, blockLength, version)
		if err != nil {
			observability.RecordError(observability.DirectionDecode, err)
			return err
		}
		observability.RecordMessage(schema.TemplateMessageContainer, observability.DirectionDecode, n)
		out[i] = env
		return nil
	})
	observability.RecordBatch(observability.DirectionDecode, time.Since(start))
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Codec) run(ctx context.Context, n int, task func(i int) error) error {
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return err
		}
		i := i
		wg.Add(1)
		if err := c.pool.Submit(func() {
			defer wg.Done()
			errs[i] = task(i)
		}); err != nil {
			wg.Done()
			wg.Wait()
			return fmt.Errorf("batch: submit item %d: %w", i, err)
		}
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			return fmt.Errorf("batch: item %d: %w", i, err)
		}
	}
	return nil
}
