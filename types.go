package foundry

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// RunStatus is the lifecycle state of a run as reported by the service.
// Values the library does not know are preserved verbatim.
type RunStatus string

const (
	RunQueued         RunStatus = "queued"
	RunInProgress     RunStatus = "in_progress"
	RunRequiresAction RunStatus = "requires_action"
	RunCancelling     RunStatus = "cancelling"
	RunCancelled      RunStatus = "cancelled"
	RunFailed         RunStatus = "failed"
	RunCompleted      RunStatus = "completed"
	RunIncomplete     RunStatus = "incomplete"
	RunExpired        RunStatus = "expired"
)

func (s RunStatus) String() string {
	return string(s)
}

// IsTerminal reports whether polling should stop. Only queued,
// in_progress and requires_action keep a poller waiting; any other
// value, including ones this package has never seen, is terminal.
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunQueued, RunInProgress, RunRequiresAction:
		return false
	default:
		return true
	}
}

// MessageRole is the author of a message.
type MessageRole int

const (
	RoleUnknown MessageRole = iota
	RoleSystem
	RoleUser
	RoleAssistant
)

func (r MessageRole) String() string {
	switch r {
	case RoleSystem:
		return "system"
	case RoleUser:
		return "user"
	case RoleAssistant:
		return "assistant"
	default:
		return "unknown"
	}
}

// ParseRole maps a wire role onto the closed set. "agent" is accepted as
// an alias of assistant.
func ParseRole(s string) MessageRole {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "system":
		return RoleSystem
	case "user":
		return RoleUser
	case "assistant", "agent":
		return RoleAssistant
	default:
		return RoleUnknown
	}
}

func (r MessageRole) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

func (r *MessageRole) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*r = ParseRole(s)
	return nil
}

// ContentType is the kind of a content block.
type ContentType int

const (
	ContentOther ContentType = iota
	ContentText
)

func (t ContentType) String() string {
	if t == ContentText {
		return "text"
	}
	return "other"
}

// ContentBlock is one piece of a message. Non-text blocks keep their raw
// payload so callers can inspect them, but the renderer ignores them.
type ContentBlock struct {
	Type    ContentType
	Text    string
	RawType string
	Raw     json.RawMessage
}

func (b *ContentBlock) UnmarshalJSON(data []byte) error {
	var wire struct {
		Type string `json:"type"`
		Text *struct {
			Value string `json:"value"`
		} `json:"text"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	b.RawType = wire.Type
	b.Raw = append(json.RawMessage(nil), data...)
	if wire.Type == "text" && wire.Text != nil {
		b.Type = ContentText
		b.Text = wire.Text.Value
		return nil
	}
	b.Type = ContentOther
	return nil
}

func (b ContentBlock) MarshalJSON() ([]byte, error) {
	if b.Type == ContentText {
		return json.Marshal(map[string]any{
			"type": "text",
			"text": map[string]any{"value": b.Text, "annotations": []any{}},
		})
	}
	if len(b.Raw) > 0 {
		return b.Raw, nil
	}
	return json.Marshal(map[string]any{"type": b.RawType})
}

// TextBlock builds a text content block.
func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: ContentText, Text: text, RawType: "text"}
}

// Message is one utterance in a thread. Messages are never mutated after
// creation.
type Message struct {
	ID        string            `json:"id"`
	ThreadID  string            `json:"thread_id"`
	Role      MessageRole       `json:"role"`
	Content   []ContentBlock    `json:"content"`
	AgentID   string            `json:"assistant_id,omitempty"`
	RunID     string            `json:"run_id,omitempty"`
	CreatedAt int64             `json:"created_at"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Created returns CreatedAt as a time.
func (m Message) Created() time.Time {
	return time.Unix(m.CreatedAt, 0)
}

// RunUsage holds the token accounting of a run.
type RunUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// RunError is the last error recorded by the service for a failed run.
type RunError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ToolCall is a function call the agent is waiting on.
type ToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

// RequiredAction describes input the run needs before it can continue.
type RequiredAction struct {
	Type              string `json:"type"`
	SubmitToolOutputs *struct {
		ToolCalls []ToolCall `json:"tool_calls"`
	} `json:"submit_tool_outputs,omitempty"`
}

// ToolOutput answers a ToolCall.
type ToolOutput struct {
	ToolCallID string `json:"tool_call_id"`
	Output     string `json:"output"`
}

// Run is a unit of asynchronous work on a thread. The service is its only
// writer; the client only re-reads it.
type Run struct {
	ID             string            `json:"id"`
	ThreadID       string            `json:"thread_id"`
	AgentID        string            `json:"assistant_id"`
	Status         RunStatus         `json:"status"`
	Model          string            `json:"model,omitempty"`
	Instructions   string            `json:"instructions,omitempty"`
	Usage          *RunUsage         `json:"usage,omitempty"`
	LastError      *RunError         `json:"last_error,omitempty"`
	RequiredAction *RequiredAction   `json:"required_action,omitempty"`
	CreatedAt      int64             `json:"created_at"`
	StartedAt      *int64            `json:"started_at,omitempty"`
	CompletedAt    *int64            `json:"completed_at,omitempty"`
	FailedAt       *int64            `json:"failed_at,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// Tool enables a capability on an agent, e.g. {"type":"file_search"}.
type Tool struct {
	Type     string          `json:"type"`
	Function json.RawMessage `json:"function,omitempty"`
}

// FileSearchTool returns the file_search tool definition.
func FileSearchTool() Tool {
	return Tool{Type: "file_search"}
}

// CodeInterpreterTool returns the code_interpreter tool definition.
func CodeInterpreterTool() Tool {
	return Tool{Type: "code_interpreter"}
}

// FileSearchResource lists the vector stores searched by file_search.
type FileSearchResource struct {
	VectorStoreIDs []string `json:"vector_store_ids"`
}

// CodeInterpreterResource lists the files visible to code_interpreter.
type CodeInterpreterResource struct {
	FileIDs []string `json:"file_ids"`
}

// ToolResources binds data sources to tools.
type ToolResources struct {
	FileSearch      *FileSearchResource      `json:"file_search,omitempty"`
	CodeInterpreter *CodeInterpreterResource `json:"code_interpreter,omitempty"`
}

// FileSearchResources returns tool resources that attach vector stores to
// the file_search tool.
func FileSearchResources(vectorStoreIDs ...string) *ToolResources {
	return &ToolResources{FileSearch: &FileSearchResource{VectorStoreIDs: vectorStoreIDs}}
}

// Agent is a server-side agent configuration.
type Agent struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Description   string            `json:"description,omitempty"`
	Model         string            `json:"model"`
	Instructions  string            `json:"instructions"`
	Tools         []Tool            `json:"tools"`
	ToolResources *ToolResources    `json:"tool_resources,omitempty"`
	CreatedAt     int64             `json:"created_at"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// AgentParams configures a new agent. Model defaults to the configured
// deployment.
type AgentParams struct {
	Model         string            `json:"model"`
	Name          string            `json:"name,omitempty"`
	Description   string            `json:"description,omitempty"`
	Instructions  string            `json:"instructions,omitempty"`
	Tools         []Tool            `json:"tools,omitempty"`
	ToolResources *ToolResources    `json:"tool_resources,omitempty"`
	Temperature   *float64          `json:"temperature,omitempty"`
	TopP          *float64          `json:"top_p,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// Thread is a conversation context.
type Thread struct {
	ID            string            `json:"id"`
	CreatedAt     int64             `json:"created_at"`
	ToolResources *ToolResources    `json:"tool_resources,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// ThreadParams configures a new thread.
type ThreadParams struct {
	ToolResources *ToolResources    `json:"tool_resources,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// RunParams configures a new run.
type RunParams struct {
	AgentID                string            `json:"assistant_id"`
	Model                  string            `json:"model,omitempty"`
	Instructions           string            `json:"instructions,omitempty"`
	AdditionalInstructions string            `json:"additional_instructions,omitempty"`
	Tools                  []Tool            `json:"tools,omitempty"`
	Metadata               map[string]string `json:"metadata,omitempty"`
}

// File is an uploaded file.
type File struct {
	ID        string `json:"id"`
	Filename  string `json:"filename"`
	Bytes     int64  `json:"bytes"`
	Purpose   string `json:"purpose"`
	Status    string `json:"status,omitempty"`
	CreatedAt int64  `json:"created_at"`
}

// FileCounts summarises the ingestion state of a vector store.
type FileCounts struct {
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
	Cancelled  int `json:"cancelled"`
	Total      int `json:"total"`
}

// VectorStore indexes files for the file_search tool.
type VectorStore struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Status     string      `json:"status"`
	UsageBytes int64       `json:"usage_bytes"`
	FileCounts *FileCounts `json:"file_counts,omitempty"`
	CreatedAt  int64       `json:"created_at"`
}

// DeletionStatus is returned by delete endpoints.
type DeletionStatus struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Deleted bool   `json:"deleted"`
}

// ListOrder is the sort order of list endpoints by creation time.
type ListOrder string

const (
	OrderDesc ListOrder = "desc"
	OrderAsc  ListOrder = "asc"
)

// ListResponse is a cursor-paginated list page.
type ListResponse[T any] struct {
	Object  string `json:"object"`
	Data    []T    `json:"data"`
	FirstID string `json:"first_id"`
	LastID  string `json:"last_id"`
	HasMore bool   `json:"has_more"`
}

// ListParams controls a list request. A zero Order means OrderDesc.
type ListParams struct {
	Limit  int
	Order  ListOrder
	After  string
	Before string
}

func (p ListParams) query() map[string]string {
	q := map[string]string{}
	order := p.Order
	if order == "" {
		order = OrderDesc
	}
	q["order"] = string(order)
	if p.Limit > 0 {
		q["limit"] = strconv.Itoa(p.Limit)
	}
	if p.After != "" {
		q["after"] = p.After
	}
	if p.Before != "" {
		q["before"] = p.Before
	}
	return q
}
