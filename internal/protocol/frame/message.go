package frame

import (
	"io"

	"github.com/danmuck/sbewire/internal/protocol/message"
)

// Encode frames m under its own template header.
func Encode(m message.Message, flags uint8) (Frame, error) {
	body, err := message.Marshal(m)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Header: m.Template().Header(), Flags: flags, Body: body}, nil
}

// Decode dispatches the frame body to the decoder its header names.
func (f Frame) Decode() (message.Message, error) {
	return message.DecodeBody(f.Header, f.Body)
}

// WriteMessage frames and writes m.
func WriteMessage(w io.Writer, m message.Message, flags uint8, limits Limits) error {
	f, err := Encode(m, flags)
	if err != nil {
		return err
	}
	return WriteFrame(w, f, limits)
}
