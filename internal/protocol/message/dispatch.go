package message

import (
	"fmt"

	"github.com/danmuck/sbewire/internal/protocol/schema"
)

// Message is any value that can encode itself as one schema template.
type Message interface {
	Template() schema.Template
	Size() int
	EncodeTo(buf []byte, offset int) (int, error)
}

// Marshal encodes m into a freshly allocated buffer of exactly m.Size() bytes.
func Marshal(m Message) ([]byte, error) {
	buf := make([]byte, m.Size())
	n, err := m.EncodeTo(buf, 0)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

// DecodeBody decodes body as the template announced by h. A MessageContainer
// is returned as-is; callers choose how to interpret its payload.
func DecodeBody(h schema.Header, body []byte) (Message, error) {
	t, err := schema.Validate(h)
	if err != nil {
		return nil, err
	}
	switch t.TemplateID {
	case schema.TemplateBarrier:
		b, _, err := DecodeBarrier(body, 0, int(h.BlockLength), int(h.Version))
		if err != nil {
			return nil, err
		}
		return b, nil
	case schema.TemplateMessageContainer:
		m, _, err := DecodeMessageContainer(body, 0, int(h.BlockLength), int(h.Version))
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("message: no decoder for template %s", t.Name)
	}
}
