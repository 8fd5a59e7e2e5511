package protocol

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf8"
)

// HeaderWidth is the byte width of a variable-length field's length prefix.
type HeaderWidth int

const (
	Header16 HeaderWidth = 2
	Header32 HeaderWidth = 4
)

// Len returns the header width in bytes.
func (w HeaderWidth) Len() int {
	return int(w)
}

// MaxLength is the largest payload the header can describe. The top value of
// the 16-bit range is reserved as null.
func (w HeaderWidth) MaxLength() int {
	if w == Header16 {
		return math.MaxUint16 - 1
	}
	return math.MaxInt32
}

func (w HeaderWidth) get(buf []byte, pos int) uint32 {
	if w == Header16 {
		return uint32(binary.LittleEndian.Uint16(buf[pos:]))
	}
	return binary.LittleEndian.Uint32(buf[pos:])
}

func (w HeaderWidth) put(buf []byte, pos, n int) {
	if w == Header16 {
		binary.LittleEndian.PutUint16(buf[pos:], uint16(n))
		return
	}
	binary.LittleEndian.PutUint32(buf[pos:], uint32(n))
}

// VarField locates a variable-length field in a message's trailing section.
type VarField struct {
	Seq    int // declaration index among the message's variable-length fields
	Header HeaderWidth
}

// DataOffset is where the field's payload starts given the cursor position.
func (f VarField) DataOffset(c *Cursor) int {
	return c.limit + f.Header.Len()
}

// PutVar appends src as field f at the cursor and advances it.
func PutVar(buf []byte, c *Cursor, f VarField, src []byte) error {
	pos, err := f.reserve(buf, c, len(src))
	if err != nil {
		return err
	}
	f.Header.put(buf, c.limit, len(src))
	copy(buf[pos:], src)
	c.advance(f.Header.Len() + len(src))
	return nil
}

// PutVarString appends the UTF-8 bytes of s as field f.
func PutVarString(buf []byte, c *Cursor, f VarField, s string) error {
	pos, err := f.reserve(buf, c, len(s))
	if err != nil {
		return err
	}
	f.Header.put(buf, c.limit, len(s))
	copy(buf[pos:], s)
	c.advance(f.Header.Len() + len(s))
	return nil
}

// CommitVar finalizes field f whose n payload bytes were already written in
// place at f.DataOffset(c). It writes the length header and advances.
func CommitVar(buf []byte, c *Cursor, f VarField, n int) error {
	if _, err := f.reserve(buf, c, n); err != nil {
		return err
	}
	f.Header.put(buf, c.limit, n)
	c.advance(f.Header.Len() + n)
	return nil
}

// VarLength reads the length header of field f without advancing the cursor.
func VarLength(buf []byte, c *Cursor, f VarField) (int, error) {
	_, n, err := f.locate(buf, c)
	return n, err
}

// GetVar copies up to len(dst) payload bytes of field f into dst and returns
// the number copied. The cursor always advances past the whole field, so a
// short dst silently skips the remainder.
func GetVar(buf []byte, c *Cursor, f VarField, dst []byte) (int, error) {
	pos, n, err := f.locate(buf, c)
	if err != nil {
		return 0, err
	}
	copied := copy(dst, buf[pos:pos+n])
	c.advance(f.Header.Len() + n)
	return copied, nil
}

// GetVarString reads field f as UTF-8 text. The cursor is advanced before the
// text is validated, so an encoding error leaves later fields readable.
func GetVarString(buf []byte, c *Cursor, f VarField) (string, error) {
	pos, n, err := f.locate(buf, c)
	if err != nil {
		return "", err
	}
	raw := buf[pos : pos+n]
	c.advance(f.Header.Len() + n)
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("%w: field seq=%d", ErrInvalidUTF8, f.Seq)
	}
	return string(raw), nil
}

// VarRegion returns the payload of field f as a sub-slice of buf, capacity
// clipped to the payload, and advances the cursor past it.
func VarRegion(buf []byte, c *Cursor, f VarField) ([]byte, error) {
	pos, n, err := f.locate(buf, c)
	if err != nil {
		return nil, err
	}
	c.advance(f.Header.Len() + n)
	return buf[pos : pos+n : pos+n], nil
}

func (f VarField) reserve(buf []byte, c *Cursor, n int) (int, error) {
	if err := c.enter(f); err != nil {
		return 0, err
	}
	if maxLen := f.Header.MaxLength(); n < 0 || n > maxLen {
		return 0, fmt.Errorf("%w: length=%d max=%d", ErrLengthOutOfRange, n, maxLen)
	}
	end := c.limit + f.Header.Len() + n
	if c.limit < 0 || end > len(buf) {
		return 0, fmt.Errorf("%w: end=%d len=%d", ErrBufferFault, end, len(buf))
	}
	return c.limit + f.Header.Len(), nil
}

func (f VarField) locate(buf []byte, c *Cursor) (int, int, error) {
	if err := c.enter(f); err != nil {
		return 0, 0, err
	}
	pos := c.limit + f.Header.Len()
	if c.limit < 0 || pos > len(buf) {
		return 0, 0, fmt.Errorf("%w: header end=%d len=%d", ErrBufferFault, pos, len(buf))
	}
	n := f.Header.get(buf, c.limit)
	if uint64(n) > uint64(len(buf)-pos) {
		return 0, 0, fmt.Errorf("%w: field end=%d len=%d", ErrBufferFault, uint64(pos)+uint64(n), len(buf))
	}
	return pos, int(n), nil
}
