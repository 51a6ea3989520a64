package foundry

import (
	"context"
	"encoding/json"
	"errors"
	"iter"
	"net/http"
	"reflect"
	"sync/atomic"
	"testing"
)

func textMessage(id string, role MessageRole, createdAt int64, text string) Message {
	return Message{ID: id, Role: role, CreatedAt: createdAt, Content: []ContentBlock{TextBlock(text)}}
}

func TestFindByRole(t *testing.T) {
	// Newest first, as the service lists them.
	thread := []Message{
		textMessage("m3", RoleUser, 3, "bye"),
		textMessage("m2", RoleAssistant, 2, "hello"),
		textMessage("m1", RoleUser, 1, "hi"),
	}

	msg, err := FindByRole(MessageSeq(thread), RoleAssistant)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got := RenderText(msg); got != "hello" {
		t.Fatalf("expected hello, got %q", got)
	}

	_, err = FindByRole(MessageSeq([]Message{thread[0], thread[2]}), RoleAssistant)
	if !errors.Is(err, ErrMessageNotFound) {
		t.Fatalf("expected ErrMessageNotFound, got %v", err)
	}

	_, err = FindByRole(MessageSeq(nil), RoleAssistant)
	if !errors.Is(err, ErrMessageNotFound) {
		t.Fatalf("empty thread: expected ErrMessageNotFound, got %v", err)
	}
}

func TestFromRunSkipsOtherRuns(t *testing.T) {
	older := textMessage("m2", RoleAssistant, 2, "first answer")
	older.RunID = "run_1"
	thread := []Message{
		textMessage("m3", RoleUser, 3, "again"),
		older,
		textMessage("m1", RoleUser, 1, "hi"),
	}

	_, err := FindByRole(FromRun(MessageSeq(thread), "run_2"), RoleAssistant)
	if !errors.Is(err, ErrMessageNotFound) {
		t.Fatalf("expected ErrMessageNotFound for a run with no reply, got %v", err)
	}
	msg, err := FindByRole(FromRun(MessageSeq(thread), "run_1"), RoleAssistant)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if msg.ID != "m2" {
		t.Fatalf("expected m2, got %s", msg.ID)
	}

	boom := errors.New("boom")
	failing := func(yield func(Message, error) bool) { yield(Message{}, boom) }
	if _, err := FindByRole(FromRun(failing, "run_1"), RoleAssistant); !errors.Is(err, boom) {
		t.Fatalf("expected sequence error, got %v", err)
	}
}

func TestFindByRoleStopsAtFirstMatch(t *testing.T) {
	pulled := 0
	var seq iter.Seq2[Message, error] = func(yield func(Message, error) bool) {
		for i, role := range []MessageRole{RoleUser, RoleAssistant, RoleAssistant, RoleUser} {
			pulled++
			if !yield(textMessage("m", role, int64(10-i), "x"), nil) {
				return
			}
		}
	}
	if _, err := FindByRole(seq, RoleAssistant); err != nil {
		t.Fatalf("find: %v", err)
	}
	if pulled != 2 {
		t.Fatalf("expected the scan to stop after 2 messages, pulled %d", pulled)
	}
}

func TestFindByRolePropagatesSequenceError(t *testing.T) {
	boom := errors.New("list failed")
	var seq iter.Seq2[Message, error] = func(yield func(Message, error) bool) {
		if !yield(textMessage("m1", RoleUser, 1, "hi"), nil) {
			return
		}
		yield(Message{}, boom)
	}
	if _, err := FindByRole(seq, RoleAssistant); !errors.Is(err, boom) {
		t.Fatalf("expected sequence error, got %v", err)
	}
}

func TestFirstAndLatestByRole(t *testing.T) {
	// Oldest first.
	msgs := []Message{
		textMessage("m1", RoleUser, 1, "hi"),
		textMessage("m2", RoleAssistant, 2, "hello"),
		textMessage("m3", RoleUser, 3, "bye"),
		textMessage("m4", RoleAssistant, 4, "goodbye"),
		textMessage("m5", RoleAssistant, 4, "see you"),
	}
	first, ok := FirstByRole(msgs, RoleAssistant)
	if !ok || first.ID != "m2" {
		t.Fatalf("expected m2, got %+v", first)
	}
	latest, ok := LatestByRole(msgs, RoleAssistant)
	if !ok || latest.ID != "m5" {
		t.Fatalf("expected tie to go to the later message m5, got %+v", latest)
	}
	if _, ok := LatestByRole(msgs, RoleSystem); ok {
		t.Fatalf("expected no system message")
	}
	if _, ok := FirstByRole(nil, RoleUser); ok {
		t.Fatalf("expected no match on empty slice")
	}
}

func TestTextBlocksSkipsNonText(t *testing.T) {
	var msg Message
	data := []byte(`{"id":"m1","role":"assistant","content":[
		{"type":"text","text":{"value":"A","annotations":[]}},
		{"type":"image_file","image_file":{"file_id":"assistant-img"}},
		{"type":"text","text":{"value":"B","annotations":[]}}
	]}`)
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	got := TextBlocks(msg)
	if !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Fatalf("expected [A B], got %v", got)
	}
	if RenderText(msg) != "A\nB" {
		t.Fatalf("unexpected render %q", RenderText(msg))
	}
	if msg.Content[1].Type != ContentOther || msg.Content[1].RawType != "image_file" {
		t.Fatalf("expected image block kept as other, got %+v", msg.Content[1])
	}
	if len(TextBlocks(Message{})) != 0 {
		t.Fatalf("empty message renders nothing")
	}
}

func TestMessagesAllFollowsCursor(t *testing.T) {
	var calls int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if r.URL.Path != "/threads/thread_1/messages" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("order"); got != "desc" {
			t.Fatalf("expected newest first, got %q", got)
		}
		after := r.URL.Query().Get("after")
		switch n {
		case 1:
			if after != "" {
				t.Fatalf("first page must not send a cursor, got %q", after)
			}
			_, _ = w.Write([]byte(`{"object":"list","data":[
				{"id":"m4","role":"user","content":[{"type":"text","text":{"value":"bye"}}]},
				{"id":"m3","role":"user","content":[{"type":"text","text":{"value":"wait"}}]}
			],"first_id":"m4","last_id":"m3","has_more":true}`))
		case 2:
			if after != "m3" {
				t.Fatalf("expected after=m3, got %q", after)
			}
			_, _ = w.Write([]byte(`{"object":"list","data":[
				{"id":"m2","role":"assistant","content":[{"type":"text","text":{"value":"hello"}}]},
				{"id":"m1","role":"user","content":[{"type":"text","text":{"value":"hi"}}]}
			],"first_id":"m2","last_id":"m1","has_more":true}`))
		default:
			t.Fatalf("the scan should have stopped at m2")
		}
	}))

	msg, err := FindByRole(client.Messages.All(context.Background(), "thread_1", MessageListParams{}), RoleAssistant)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if msg.ID != "m2" || RenderText(msg) != "hello" {
		t.Fatalf("unexpected message %+v", msg)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("expected 2 pages, got %d", atomic.LoadInt32(&calls))
	}
}

func TestMessagesCreateDefaultsToUserRole(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body["role"] != "user" || body["content"] != "Write me a poem about flowers" {
			t.Fatalf("unexpected body %v", body)
		}
		_, _ = w.Write([]byte(`{"id":"msg_1","thread_id":"thread_1","role":"user","content":[]}`))
	}))

	msg, err := client.Messages.Create("thread_1", MessageParams{Content: "Write me a poem about flowers"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if msg.ID != "msg_1" || msg.Role != RoleUser {
		t.Fatalf("unexpected message %+v", msg)
	}
}
