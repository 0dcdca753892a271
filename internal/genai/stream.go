package genai

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"
)

// Inline image payloads arrive base64-encoded on a single SSE line, so
// the scanner buffer must accommodate whole images.
const maxStreamLine = 32 * 1024 * 1024

// StreamParser reads Server-Sent Events from a streaming generate call.
type StreamParser struct {
	scanner *bufio.Scanner
}

// NewStreamParser creates a parser over an SSE response body.
func NewStreamParser(reader io.Reader) *StreamParser {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), maxStreamLine)
	return &StreamParser{scanner: scanner}
}

// Next returns the next response chunk, or (nil, nil) when the stream
// is exhausted. Lines that are not data frames or fail to parse are
// skipped; the backend interleaves keep-alives and partial frames.
func (p *StreamParser) Next() (*streamChunk, error) {
	for p.scanner.Scan() {
		line := p.scanner.Text()

		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")

		var resp generateResponse
		if err := json.Unmarshal([]byte(data), &resp); err != nil {
			continue
		}

		return &streamChunk{resp: resp}, nil
	}

	if err := p.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, nil
}

// streamChunk is one decoded frame of a streaming response.
type streamChunk struct {
	resp generateResponse
}

// image returns the chunk's first inline binary payload, if any.
func (c *streamChunk) image() []byte {
	return c.resp.image()
}

// text returns the chunk's concatenated text, if any.
func (c *streamChunk) text() string {
	return c.resp.text()
}
