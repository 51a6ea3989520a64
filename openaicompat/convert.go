package openaicompat

import (
	foundry "github.com/foundry-agents/foundry-go"
	openai "github.com/sashabaranov/go-openai"
)

func roleToOpenAI(role foundry.MessageRole) string {
	switch role {
	case foundry.RoleAssistant:
		return openai.ChatMessageRoleAssistant
	case foundry.RoleSystem:
		return openai.ChatMessageRoleSystem
	default:
		return openai.ChatMessageRoleUser
	}
}

func runFromOpenAI(run openai.Run) foundry.Run {
	return foundry.Run{
		ID:        run.ID,
		ThreadID:  run.ThreadID,
		AgentID:   run.AssistantID,
		Status:    foundry.RunStatus(run.Status),
		Model:     run.Model,
		CreatedAt: int64(run.CreatedAt),
	}
}

func messageFromOpenAI(msg openai.Message) foundry.Message {
	out := foundry.Message{
		ID:        msg.ID,
		ThreadID:  msg.ThreadID,
		Role:      foundry.ParseRole(msg.Role),
		CreatedAt: int64(msg.CreatedAt),
	}
	if msg.RunID != nil {
		out.RunID = *msg.RunID
	}
	for _, c := range msg.Content {
		if c.Type == "text" && c.Text != nil {
			out.Content = append(out.Content, foundry.TextBlock(c.Text.Value))
			continue
		}
		out.Content = append(out.Content, foundry.ContentBlock{Type: foundry.ContentOther, RawType: c.Type})
	}
	return out
}

func toolsToOpenAI(tools []foundry.Tool) []openai.AssistantTool {
	if len(tools) == 0 {
		return nil
	}
	out := make([]openai.AssistantTool, 0, len(tools))
	for _, t := range tools {
		out = append(out, openai.AssistantTool{Type: openai.AssistantToolType(t.Type)})
	}
	return out
}
