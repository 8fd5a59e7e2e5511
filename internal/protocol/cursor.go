package protocol

import "fmt"

// Cursor tracks the first unconsumed (decode) or unwritten (encode) byte of a
// message. A message view owns exactly one Cursor and hands it by pointer to
// each variable-length field operation.
type Cursor struct {
	offset int
	limit  int
	next   int
}

// NewCursor seeds a cursor for a message starting at offset whose fixed block
// is blockLength bytes long.
func NewCursor(offset, blockLength int) Cursor {
	return Cursor{offset: offset, limit: offset + blockLength}
}

func (c *Cursor) Offset() int {
	return c.offset
}

func (c *Cursor) Limit() int {
	return c.limit
}

// SetLimit moves the cursor explicitly. It does not reset field ordering.
func (c *Cursor) SetLimit(limit int) {
	c.limit = limit
}

// EncodedLength reports limit - offset. It is the full message size only once
// every variable-length field has been visited.
func (c *Cursor) EncodedLength() int {
	return c.limit - c.offset
}

// Visited reports how many variable-length fields have been consumed.
func (c *Cursor) Visited() int {
	return c.next
}

func (c *Cursor) enter(f VarField) error {
	if orderChecks && f.Seq != c.next {
		return fmt.Errorf("%w: field seq=%d expected=%d", ErrOrderViolation, f.Seq, c.next)
	}
	return nil
}

func (c *Cursor) advance(n int) {
	c.limit += n
	c.next++
}
