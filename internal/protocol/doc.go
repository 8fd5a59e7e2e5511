// Package protocol owns the codec primitives every message type is built from.
//
// Ownership boundary:
// - little-endian fixed-field accessors at absolute buffer positions
// - the message cursor (limit) shared by a message's variable-length fields
// - length-prefixed variable-length field read/write against that cursor
//
// Variable-length fields of one message must be visited exactly once each, in
// declaration order, by both encoder and decoder. The cursor is the only
// record of where the next field starts.
package protocol
