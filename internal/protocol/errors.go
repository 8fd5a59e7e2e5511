package protocol

import "errors"

var (
	ErrIndexOutOfRange  = errors.New("protocol: index out of range")
	ErrLengthOutOfRange = errors.New("protocol: length exceeds max value for header")
	ErrInvalidUTF8      = errors.New("protocol: invalid utf-8 in text field")
	ErrBufferFault      = errors.New("protocol: access beyond buffer extent")
	ErrOrderViolation   = errors.New("protocol: variable-length field accessed out of order")
)
