package provider

import (
	"bufio"
	"io"
	"strings"
)

// maxSSELine bounds a single event line; long completions arrive as one
// data line per delta, so 4 MiB is generous.
const maxSSELine = 4 << 20

// SSEEvent is one dispatched server-sent event. Data joins multiple data
// lines with "\n".
type SSEEvent struct {
	Event string
	Data  string
}

// SSEScanner pulls events off a text/event-stream body for the hosted
// providers. Call Next until it returns false, then check Err.
type SSEScanner struct {
	lines *bufio.Scanner
	cur   SSEEvent
	err   error
	eof   bool
}

func NewSSEScanner(r io.Reader) *SSEScanner {
	lines := bufio.NewScanner(r)
	lines.Buffer(make([]byte, 0, 64<<10), maxSSELine)
	return &SSEScanner{lines: lines}
}

// Next reads up to the next blank line (or end of stream) and reports
// whether an event with a name or data was found. Comment lines and
// unknown fields such as id: and retry: are ignored.
func (s *SSEScanner) Next() bool {
	if s.eof {
		return false
	}

	var (
		evt     SSEEvent
		data    []string
		pending bool
	)
	emit := func() bool {
		if !pending {
			return false
		}
		evt.Data = strings.Join(data, "\n")
		s.cur = evt
		return true
	}

	for s.lines.Scan() {
		line := s.lines.Text()
		if line == "" {
			if emit() {
				return true
			}
			continue
		}

		name, value := sseField(line)
		switch name {
		case "event":
			evt.Event = value
			pending = true
		case "data":
			data = append(data, value)
			pending = true
		}
	}

	s.eof = true
	s.err = s.lines.Err()
	return emit()
}

// sseField splits "name: value". A line starting with ':' is a comment and
// yields an empty name.
func sseField(line string) (string, string) {
	if strings.HasPrefix(line, ":") {
		return "", ""
	}
	name, value, _ := strings.Cut(line, ":")
	return name, strings.TrimSpace(value)
}

// Event returns the event found by the last successful Next.
func (s *SSEScanner) Event() SSEEvent { return s.cur }

// Err is the read error that ended the stream, if any.
func (s *SSEScanner) Err() error { return s.err }
