// Package message holds the encoder/decoder views for each schema template.
//
// A view is wrapped over a caller-owned buffer at an offset, used, and
// discarded. Fixed fields may be touched in any order. Variable-length fields
// must be touched once each in declaration order. Views are not safe for
// concurrent use; independent views over disjoint regions of one buffer are.
package message
