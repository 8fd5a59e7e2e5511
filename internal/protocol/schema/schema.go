package schema

import (
	"fmt"

	"github.com/danmuck/sbewire/internal/protocol"
	"github.com/rs/zerolog/log"
)

// Schema identity shared by every template below.
const (
	SchemaID      uint16 = 1
	SchemaVersion uint16 = 0
)

// ToTaskNumsLength is the element count of MessageContainer.toTaskNums.
const ToTaskNumsLength = 8

// Template IDs.
const (
	TemplateMessageContainer uint16 = 0
	TemplateBarrier          uint16 = 25
)

// Kind classifies where a field lives in a message.
type Kind uint8

const (
	KindScalar Kind = iota + 1
	KindArray
	KindVar
)

// Primitive is the wire type of a fixed field or array element.
type Primitive uint8

const (
	Uint8 Primitive = iota + 1
	Uint16
	Uint32
)

// Size returns the primitive width in bytes.
func (p Primitive) Size() int {
	switch p {
	case Uint8:
		return 1
	case Uint16:
		return 2
	case Uint32:
		return 4
	default:
		return 0
	}
}

// MetaAttribute names a static attribute carried by every field.
type MetaAttribute uint8

const (
	Epoch MetaAttribute = iota + 1
	TimeUnit
	SemanticType
)

// Field is the static descriptor for one message field. Null, Min and Max are
// sentinel values for scalars and array elements; for variable-length fields
// Min and Max bound the payload length.
type Field struct {
	ID          int
	Name        string
	Kind        Kind
	Type        Primitive
	Offset      int
	ArrayLength int
	Null        uint64
	Min         uint64
	Max         uint64

	Var               protocol.VarField
	CharacterEncoding string
}

// IsNull reports whether v is the field's reserved null value.
func (f Field) IsNull(v uint64) bool {
	return f.Kind != KindVar && v == f.Null
}

// InRange reports whether v is a real (non-null) value for the field.
func (f Field) InRange(v uint64) bool {
	return v >= f.Min && v <= f.Max
}

// Size is the number of fixed-block bytes the field occupies.
func (f Field) Size() int {
	switch f.Kind {
	case KindScalar:
		return f.Type.Size()
	case KindArray:
		return f.Type.Size() * f.ArrayLength
	default:
		return 0
	}
}

// HeaderLength is the length prefix width of a variable-length field.
func (f Field) HeaderLength() int {
	if f.Kind != KindVar {
		return 0
	}
	return f.Var.Header.Len()
}

// MetaAttribute returns the static attribute value for the field.
func (f Field) MetaAttribute(a MetaAttribute) string {
	switch a {
	case Epoch:
		return "unix"
	case TimeUnit:
		return "nanosecond"
	default:
		return ""
	}
}

// Template describes one message type.
type Template struct {
	Name          string
	TemplateID    uint16
	SchemaID      uint16
	SchemaVersion uint16
	BlockLength   uint16
	SemanticType  string
	Fields        []Field
}

// Field returns the descriptor named name.
func (t Template) Field(name string) (Field, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// VarFields returns the variable-length fields in declaration order.
func (t Template) VarFields() []Field {
	out := make([]Field, 0, 1)
	for _, f := range t.Fields {
		if f.Kind == KindVar {
			out = append(out, f)
		}
	}
	return out
}

// Header returns the message header announcing this template.
func (t Template) Header() Header {
	return Header{
		BlockLength: t.BlockLength,
		TemplateID:  t.TemplateID,
		SchemaID:    t.SchemaID,
		Version:     t.SchemaVersion,
	}
}

var (
	ContainerReplicaVersion = Field{
		ID: 1, Name: "replicaVersion", Kind: KindScalar, Type: Uint32, Offset: 0,
		Null: 0xFFFFFFFE, Min: 0, Max: 0xFFFFFFFD,
	}
	ContainerFromPeerNum = Field{
		ID: 22, Name: "fromPeerNum", Kind: KindScalar, Type: Uint16, Offset: 4,
		Null: 0xFFFF, Min: 0, Max: 0xFFFE,
	}
	ContainerToTaskNums = Field{
		ID: 23, Name: "toTaskNums", Kind: KindArray, Type: Uint16, Offset: 6, ArrayLength: ToTaskNumsLength,
		Null: 0xFFFF, Min: 0, Max: 0xFFFE,
	}
	ContainerPayload = Field{
		ID: 24, Name: "payload", Kind: KindVar,
		Min: 0, Max: 2147483647,
		Var:               protocol.VarField{Seq: 0, Header: protocol.Header32},
		CharacterEncoding: "UTF-8",
	}

	BarrierFromTaskNum = Field{
		ID: 26, Name: "fromTaskNum", Kind: KindScalar, Type: Uint16, Offset: 0,
		Null: 0xFFFF, Min: 0, Max: 0xFFFE,
	}
	BarrierToTaskNum = Field{
		ID: 27, Name: "toTaskNum", Kind: KindScalar, Type: Uint16, Offset: 2,
		Null: 0xFFFF, Min: 0, Max: 0xFFFE,
	}
	BarrierReplicaVersion = Field{
		ID: 29, Name: "replicaVersion", Kind: KindScalar, Type: Uint32, Offset: 4,
		Null: 0xFFFFFFFE, Min: 0, Max: 0xFFFFFFFD,
	}
	BarrierReplica = Field{
		ID: 28, Name: "replica", Kind: KindVar,
		Min: 0, Max: 65534,
		Var:               protocol.VarField{Seq: 0, Header: protocol.Header16},
		CharacterEncoding: "UTF-8",
	}
)

var (
	MessageContainer = Template{
		Name:          "MessageContainer",
		TemplateID:    TemplateMessageContainer,
		SchemaID:      SchemaID,
		SchemaVersion: SchemaVersion,
		BlockLength:   22,
		Fields: []Field{
			ContainerReplicaVersion,
			ContainerFromPeerNum,
			ContainerToTaskNums,
			ContainerPayload,
		},
	}
	Barrier = Template{
		Name:          "Barrier",
		TemplateID:    TemplateBarrier,
		SchemaID:      SchemaID,
		SchemaVersion: SchemaVersion,
		BlockLength:   8,
		Fields: []Field{
			BarrierFromTaskNum,
			BarrierToTaskNum,
			BarrierReplicaVersion,
			BarrierReplica,
		},
	}
)

var templates = map[uint16]Template{
	TemplateMessageContainer: MessageContainer,
	TemplateBarrier:          Barrier,
}

// Lookup returns the template registered under templateID.
func Lookup(templateID uint16) (Template, bool) {
	t, ok := templates[templateID]
	return t, ok
}

type ValidationError struct {
	TemplateID uint16
	Reason     string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("schema: template_id=%d: %s", e.TemplateID, e.Reason)
}

// Validate checks that h names a known template of this schema and that its
// acting block length covers the compiled fixed block. Versions are passed
// through as-is.
func Validate(h Header) (Template, error) {
	log.Debug().
		Uint16("template_id", h.TemplateID).
		Uint16("schema_id", h.SchemaID).
		Uint16("block_length", h.BlockLength).
		Uint16("version", h.Version).
		Msg("schema.Validate")
	if h.SchemaID != SchemaID {
		log.Error().Uint16("schema_id", h.SchemaID).Msg("schema.Validate unknown schema")
		return Template{}, ValidationError{TemplateID: h.TemplateID, Reason: fmt.Sprintf("unknown schema_id %d", h.SchemaID)}
	}
	t, ok := Lookup(h.TemplateID)
	if !ok {
		log.Error().Uint16("template_id", h.TemplateID).Msg("schema.Validate unknown template")
		return Template{}, ValidationError{TemplateID: h.TemplateID, Reason: "unknown template_id"}
	}
	if h.BlockLength < t.BlockLength {
		log.Error().
			Uint16("template_id", h.TemplateID).
			Uint16("got", h.BlockLength).
			Uint16("want", t.BlockLength).
			Msg("schema.Validate block length too small")
		return Template{}, ValidationError{TemplateID: h.TemplateID, Reason: "block_length smaller than compiled block"}
	}
	return t, nil
}
