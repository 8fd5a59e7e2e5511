package protocol

import (
	"encoding/binary"
	"fmt"
)

// Fixed-field accessors read and write at absolute buffer positions. Values are
// unsigned and zero-extended. Positions past the buffer end panic through the
// slice bounds check; that is a buffer fault, not a codec error.

// Uint8At returns the uint8 at pos.
func Uint8At(buf []byte, pos int) uint8 {
	return buf[pos]
}

// PutUint8At writes v at pos.
func PutUint8At(buf []byte, pos int, v uint8) {
	buf[pos] = v
}

// Uint16At returns the little-endian uint16 at pos.
func Uint16At(buf []byte, pos int) uint16 {
	return binary.LittleEndian.Uint16(buf[pos : pos+2])
}

// PutUint16At writes v little-endian at pos.
func PutUint16At(buf []byte, pos int, v uint16) {
	binary.LittleEndian.PutUint16(buf[pos:pos+2], v)
}

// Uint32At returns the little-endian uint32 at pos.
func Uint32At(buf []byte, pos int) uint32 {
	return binary.LittleEndian.Uint32(buf[pos : pos+4])
}

// PutUint32At writes v little-endian at pos.
func PutUint32At(buf []byte, pos int, v uint32) {
	binary.LittleEndian.PutUint32(buf[pos:pos+4], v)
}

// Uint16ArrayAt returns element index of a length-element uint16 array at pos.
func Uint16ArrayAt(buf []byte, pos, length, index int) (uint16, error) {
	if err := checkIndex(length, index); err != nil {
		return 0, err
	}
	return Uint16At(buf, pos+index*2), nil
}

// PutUint16ArrayAt writes element index of a length-element uint16 array at pos.
func PutUint16ArrayAt(buf []byte, pos, length, index int, v uint16) error {
	if err := checkIndex(length, index); err != nil {
		return err
	}
	PutUint16At(buf, pos+index*2, v)
	return nil
}

func checkIndex(length, index int) error {
	if index < 0 || index >= length {
		return fmt.Errorf("%w: index=%d length=%d", ErrIndexOutOfRange, index, length)
	}
	return nil
}
