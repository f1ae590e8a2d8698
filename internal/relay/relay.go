// Package relay forwards normalized stream chunks to an SSE writer. It
// preserves chunk order, terminates exactly once, and never reorders or
// drops events it has received.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/nulzo/ai-gateway/internal/core/domain"
	"github.com/nulzo/ai-gateway/internal/core/ports"
	"github.com/nulzo/ai-gateway/pkg/schema"
)

// Frame is the wire shape of one SSE data line.
type Frame struct {
	Model        string              `json:"model,omitempty"`
	Provider     string              `json:"provider,omitempty"`
	Content      string              `json:"content,omitempty"`
	FinishReason schema.FinishReason `json:"finish_reason,omitempty"`
	Error        string              `json:"error,omitempty"`
}

// Flusher is the subset of http.Flusher the relay needs. A nil flush
// function is allowed for buffered test writers.
type Flusher func()

// Forward drains ch into w as SSE frames. The first frame carries the model
// and provider identity; later frames carry only deltas. On a clean close it
// writes the [DONE] sentinel; on a chunk error it writes one terminal error
// frame instead and returns the error. Context cancellation stops the relay
// without a sentinel, since the client has already gone away.
func Forward(ctx context.Context, ch <-chan ports.StreamChunk, model *domain.ModelDescriptor, w io.Writer, flush Flusher) error {
	first := true

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case chunk, ok := <-ch:
			if !ok {
				writeSentinel(w, flush)
				return nil
			}

			if chunk.Err != nil {
				writeFrame(w, flush, errorFrame(chunk.Err))
				return chunk.Err
			}

			if chunk.Event == nil {
				continue
			}

			frame := Frame{
				Content:      chunk.Event.Content,
				FinishReason: chunk.Event.FinishReason,
			}
			if first {
				frame.Model = model.Key
				frame.Provider = model.ProviderKey()
				first = false
			}
			if err := writeFrame(w, flush, frame); err != nil {
				return err
			}
		}
	}
}

// errorFrame carries only the taxonomy's safe message. Raw upstream bodies
// never reach the client.
func errorFrame(err error) Frame {
	var ge *domain.Error
	if errors.As(err, &ge) {
		return Frame{Error: ge.Message}
	}
	return Frame{Error: "upstream stream interrupted"}
}

func writeFrame(w io.Writer, flush Flusher, f Frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return err
	}
	if flush != nil {
		flush()
	}
	return nil
}

func writeSentinel(w io.Writer, flush Flusher) {
	io.WriteString(w, "data: [DONE]\n\n")
	if flush != nil {
		flush()
	}
}
