package sse

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"strings"
)

// Mode selects the framing convention used by a [Reader].
type Mode int

const (
	// ModeLine treats each "data:" line as an independent frame.
	ModeLine Mode = iota
	// ModeBlock accumulates "event:" and "data:" lines until a blank line.
	ModeBlock
)

// String returns the configuration name of the mode ("line" or "block").
func (mode Mode) String() string {
	switch mode {
	case ModeLine:
		return "line"
	case ModeBlock:
		return "block"
	default:
		return fmt.Sprintf("mode(%d)", int(mode))
	}
}

// ParseMode converts a configuration string ("line", "block") into a Mode.
// The comparison is case-insensitive.
func ParseMode(value string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "line", "single", "single-line":
		return ModeLine, nil
	case "block", "event":
		return ModeBlock, nil
	default:
		return ModeLine, fmt.Errorf("unknown SSE framing mode %q", value)
	}
}

// Frame is one parsed unit of SSE data. Event is empty when the transport did
// not tag the frame with an "event:" line.
type Frame struct {
	Event string `json:"event,omitempty"`
	Data  string `json:"data"`
}

// doneSentinel is the terminal payload used by OpenAI-compatible APIs.
const doneSentinel = "[DONE]"

// maxLineSize is the maximum size of a single SSE line (1 MB).
// The default bufio.Scanner limit is 64 KiB, which is too small for
// large events such as tool-call arguments or long completions.
// Lines beyond this limit surface a wrapped bufio.ErrTooLong from Next.
const maxLineSize = 1 * 1024 * 1024

// Reader reads SSE frames from an io.Reader. It is forward-only and owned by
// a single goroutine; it blocks only while the underlying reader does.
type Reader struct {
	scanner *bufio.Scanner
	mode    Mode
	done    bool

	// block mode accumulator
	eventType string
	dataLines []string
}

// NewReader creates a Reader that frames the given transport with mode.
func NewReader(reader io.Reader, mode Mode) *Reader {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Reader{
		scanner: scanner,
		mode:    mode,
	}
}

// Next returns the next frame. It returns io.EOF once the transport ends or
// the [DONE] sentinel is seen; every later call also returns io.EOF.
// Comment lines (":") and lines that carry neither "data:" nor "event:" are
// skipped.
func (reader *Reader) Next() (Frame, error) {
	if reader.done {
		return Frame{}, io.EOF
	}

	for reader.scanner.Scan() {
		line := reader.scanner.Text()

		if line == "" {
			if reader.mode == ModeBlock && len(reader.dataLines) > 0 {
				return reader.dispatch(), nil
			}
			// A tag without data is not a frame.
			reader.eventType = ""
			continue
		}

		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, ok := splitField(line)
		if !ok {
			continue
		}

		switch field {
		case "data":
			if strings.EqualFold(strings.TrimSpace(value), doneSentinel) {
				reader.finish()
				return Frame{}, io.EOF
			}
			if reader.mode == ModeLine {
				return Frame{Data: value}, nil
			}
			reader.dataLines = append(reader.dataLines, value)

		case "event":
			if reader.mode == ModeBlock {
				reader.eventType = strings.TrimSpace(value)
			}
		}
		// id: and retry: carry nothing we use.
	}

	if err := reader.scanner.Err(); err != nil {
		reader.finish()
		return Frame{}, fmt.Errorf("SSE scanner error: %w", err)
	}

	// Transport ended without a trailing blank line.
	if reader.mode == ModeBlock && len(reader.dataLines) > 0 {
		frame := reader.dispatch()
		reader.done = true
		return frame, nil
	}

	reader.finish()
	return Frame{}, io.EOF
}

// Frames returns an iterator over the remaining frames. Iteration stops at
// io.EOF; any other error is yielded once and ends the sequence.
func (reader *Reader) Frames() iter.Seq2[Frame, error] {
	return func(yield func(Frame, error) bool) {
		for {
			frame, err := reader.Next()
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(Frame{}, err)
				return
			}
			if !yield(frame, nil) {
				return
			}
		}
	}
}

func (reader *Reader) dispatch() Frame {
	frame := Frame{
		Event: reader.eventType,
		Data:  strings.Join(reader.dataLines, "\n"),
	}
	reader.eventType = ""
	reader.dataLines = reader.dataLines[:0]
	return frame
}

func (reader *Reader) finish() {
	reader.done = true
	reader.eventType = ""
	reader.dataLines = nil
}

// splitField splits "name:value" and strips the single optional space that
// SSE allows after the colon. Lines without a colon are not fields.
func splitField(line string) (string, string, bool) {
	name, value, found := strings.Cut(line, ":")
	if !found {
		return "", "", false
	}
	return name, strings.TrimPrefix(value, " "), true
}
