package schema

import "github.com/danmuck/sbewire/internal/protocol"

// VarBytes is the composite behind 4-byte-header variable-length fields: a
// uint32 length followed by raw uint8 data. Its encoded length is variable.
var (
	VarBytesLength = Field{
		ID: 0, Name: "length", Kind: KindScalar, Type: Uint32, Offset: 0,
		Null: 4294967294, Min: 0, Max: 2147483647,
	}
	VarBytesData = Field{
		ID: 0, Name: "varData", Kind: KindVar, Type: Uint8,
		Var: protocol.VarField{Seq: 0, Header: protocol.Header32},
	}
)

// VarBytesEncodedLength marks the composite as variable-sized.
const VarBytesEncodedLength = -1
