package foundry

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Run stream event names.
const (
	EventRunCreated        = "thread.run.created"
	EventRunQueued         = "thread.run.queued"
	EventRunInProgress     = "thread.run.in_progress"
	EventRunRequiresAction = "thread.run.requires_action"
	EventRunCompleted      = "thread.run.completed"
	EventRunFailed         = "thread.run.failed"
	EventRunCancelled      = "thread.run.cancelled"
	EventRunExpired        = "thread.run.expired"
	EventMessageDelta      = "thread.message.delta"
	EventMessageCompleted  = "thread.message.completed"
	EventError             = "error"
	EventDone              = "done"
)

const maxEventSize = 1 << 20

// RunEvent is one server-sent event of a streamed run.
type RunEvent struct {
	Name string
	Data json.RawMessage
}

// IsRun reports whether the event carries a run record.
func (e RunEvent) IsRun() bool {
	return strings.HasPrefix(e.Name, "thread.run.") && !strings.HasPrefix(e.Name, "thread.run.step.")
}

// Run decodes a thread.run.* payload.
func (e RunEvent) Run() (Run, error) {
	if !e.IsRun() {
		return Run{}, fmt.Errorf("event %s does not carry a run", e.Name)
	}
	var run Run
	if err := json.Unmarshal(e.Data, &run); err != nil {
		return Run{}, fmt.Errorf("decode %s: %w", e.Name, err)
	}
	return run, nil
}

// Message decodes a thread.message.* payload other than deltas.
func (e RunEvent) Message() (Message, error) {
	if !strings.HasPrefix(e.Name, "thread.message.") || e.Name == EventMessageDelta {
		return Message{}, fmt.Errorf("event %s does not carry a message", e.Name)
	}
	var msg Message
	if err := json.Unmarshal(e.Data, &msg); err != nil {
		return Message{}, fmt.Errorf("decode %s: %w", e.Name, err)
	}
	return msg, nil
}

// TextDelta returns the text appended by a thread.message.delta event.
func (e RunEvent) TextDelta() (string, bool) {
	if e.Name != EventMessageDelta {
		return "", false
	}
	var wire struct {
		Delta struct {
			Content []ContentBlock `json:"content"`
		} `json:"delta"`
	}
	if err := json.Unmarshal(e.Data, &wire); err != nil {
		return "", false
	}
	var sb strings.Builder
	for _, block := range wire.Delta.Content {
		if block.Type == ContentText {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), sb.Len() > 0
}

// RunStream reads the events of a streamed run.
//
//	for stream.Next() {
//		ev := stream.Event()
//		...
//	}
//	if err := stream.Err(); err != nil { ... }
type RunStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	event   RunEvent
	err     error
	done    bool
}

func newRunStream(body io.ReadCloser) *RunStream {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventSize)
	return &RunStream{body: body, scanner: scanner}
}

// Next advances to the next event. It returns false at the done event,
// at end of input, or on error.
func (s *RunStream) Next() bool {
	if s.done || s.err != nil {
		return false
	}
	var name string
	var data bytes.Buffer
	hasData := false
	for s.scanner.Scan() {
		line := s.scanner.Text()
		if line == "" {
			if name == "" && !hasData {
				continue
			}
			if ev, ok := s.dispatch(name, data.Bytes()); ok {
				s.event = ev
				return true
			}
			return false
		}
		if strings.HasPrefix(line, ":") {
			continue
		}
		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			name = value
		case "data":
			if hasData {
				data.WriteByte('\n')
			}
			data.WriteString(value)
			hasData = true
		}
	}
	if err := s.scanner.Err(); err != nil {
		s.err = fmt.Errorf("read run stream: %w", err)
		return false
	}
	// Input ended without a trailing blank line.
	if name != "" || hasData {
		if ev, ok := s.dispatch(name, data.Bytes()); ok {
			s.event = ev
			return true
		}
	}
	s.done = true
	return false
}

func (s *RunStream) dispatch(name string, data []byte) (RunEvent, bool) {
	if name == "" {
		name = "message"
	}
	if name == EventDone || string(data) == "[DONE]" {
		s.done = true
		return RunEvent{}, false
	}
	if name == EventError {
		code, msg, _ := extractErrorDetail(0, data)
		s.err = &APIError{Code: code, Message: msg, Body: append([]byte(nil), data...)}
		return RunEvent{}, false
	}
	return RunEvent{Name: name, Data: append(json.RawMessage(nil), data...)}, true
}

// Event returns the current event.
func (s *RunStream) Event() RunEvent {
	return s.event
}

// Err returns the first read or stream error.
func (s *RunStream) Err() error {
	return s.err
}

// Close releases the underlying connection.
func (s *RunStream) Close() error {
	s.done = true
	return s.body.Close()
}

// Final drains the stream and returns the last run record it carried.
func (s *RunStream) Final() (Run, error) {
	var last Run
	seen := false
	for s.Next() {
		ev := s.Event()
		if !ev.IsRun() {
			continue
		}
		run, err := ev.Run()
		if err != nil {
			return last, err
		}
		last, seen = run, true
	}
	if err := s.Err(); err != nil {
		return last, err
	}
	if !seen {
		return last, fmt.Errorf("run stream ended without a run event")
	}
	return last, nil
}
