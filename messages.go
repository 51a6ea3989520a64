package foundry

import (
	"iter"
	"strings"
)

// FindByRole returns the first message of the given role in iteration
// order and stops reading the sequence there. Message listings from this
// package are newest first, so on those the result is the latest message
// of that role. A sequence error is returned as-is; a sequence with no
// match yields ErrMessageNotFound.
func FindByRole(seq iter.Seq2[Message, error], role MessageRole) (Message, error) {
	for msg, err := range seq {
		if err != nil {
			return Message{}, err
		}
		if msg.Role == role {
			return msg, nil
		}
	}
	return Message{}, ErrMessageNotFound
}

// FromRun narrows seq to messages written by runID. Errors pass through
// unchanged.
func FromRun(seq iter.Seq2[Message, error], runID string) iter.Seq2[Message, error] {
	return func(yield func(Message, error) bool) {
		for msg, err := range seq {
			if err != nil {
				yield(Message{}, err)
				return
			}
			if msg.RunID != runID {
				continue
			}
			if !yield(msg, nil) {
				return
			}
		}
	}
}

// CollectMessages drains seq into a slice.
func CollectMessages(seq iter.Seq2[Message, error]) ([]Message, error) {
	var out []Message
	for msg, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, msg)
	}
	return out, nil
}

// FirstByRole returns the first message of the given role in slice order.
func FirstByRole(msgs []Message, role MessageRole) (Message, bool) {
	for _, msg := range msgs {
		if msg.Role == role {
			return msg, true
		}
	}
	return Message{}, false
}

// LatestByRole returns the newest message of the given role regardless of
// slice order. Ties on CreatedAt go to the later slice position.
func LatestByRole(msgs []Message, role MessageRole) (Message, bool) {
	best := -1
	for i, msg := range msgs {
		if msg.Role != role {
			continue
		}
		if best < 0 || msg.CreatedAt >= msgs[best].CreatedAt {
			best = i
		}
	}
	if best < 0 {
		return Message{}, false
	}
	return msgs[best], true
}

// TextBlocks returns the text of each text block in order. Other blocks
// are skipped.
func TextBlocks(msg Message) []string {
	var out []string
	for _, block := range msg.Content {
		if block.Type == ContentText {
			out = append(out, block.Text)
		}
	}
	return out
}

// RenderText joins the text blocks of msg with newlines.
func RenderText(msg Message) string {
	return strings.Join(TextBlocks(msg), "\n")
}

// MessageSeq adapts a slice to the sequence shape FindByRole accepts.
func MessageSeq(msgs []Message) iter.Seq2[Message, error] {
	return func(yield func(Message, error) bool) {
		for _, msg := range msgs {
			if !yield(msg, nil) {
				return
			}
		}
	}
}
