package readout

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// SubEventReader decodes a stream of msgpack encoded sub-events.
type SubEventReader struct {
	decoder *msgpack.Decoder
	count   int
}

func NewSubEventReader(r io.Reader) *SubEventReader {
	return &SubEventReader{decoder: msgpack.NewDecoder(bufio.NewReader(r))}
}

// Next returns the next sub-event, or io.EOF at the end of the stream.
func (r *SubEventReader) Next() (*SubEvent, error) {
	subEvent := &SubEvent{}
	if err := r.decoder.Decode(subEvent); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("error decoding sub-event %d: %w", r.count, err)
	}
	r.count++
	return subEvent, nil
}

// SubEventWriter encodes sub-events as a msgpack stream. Flush must be
// called when done.
type SubEventWriter struct {
	buffer  *bufio.Writer
	encoder *msgpack.Encoder
}

func NewSubEventWriter(w io.Writer) *SubEventWriter {
	buffer := bufio.NewWriter(w)
	return &SubEventWriter{buffer: buffer, encoder: msgpack.NewEncoder(buffer)}
}

func (w *SubEventWriter) Write(subEvent *SubEvent) error {
	if err := w.encoder.Encode(subEvent); err != nil {
		return fmt.Errorf("error encoding sub-event %d: %w", subEvent.Number, err)
	}
	return nil
}

func (w *SubEventWriter) Flush() error {
	return w.buffer.Flush()
}
