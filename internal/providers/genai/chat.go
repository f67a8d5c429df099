package genai

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// personaInstruction is the fixed system-level behavior description bound to
// every conversation session.
const personaInstruction = "You are Mimino, a knowledgeable and casual AI assistant. " +
	"Mirror the user's language: reply in Georgian when addressed in Georgian and in English otherwise. " +
	"You can chat about anything, generate and edit photos, and create short video animations. " +
	"Mention these capabilities when the user asks what you can do."

// Chat is an opaque conversation handle. Callers hold the handle, not the
// transcript: accumulated history lives inside and is replayed on each send,
// which is how a stateful session is realized over the stateless
// generateContent endpoint. A reset replaces the handle wholesale.
type Chat struct {
	client  *Client
	history []geminiContent
}

// NewChat starts a conversation session bound to the persona instruction.
func (c *Client) NewChat() *Chat {
	return &Chat{client: c}
}

// Send delivers one user message and returns the session's next reply. The
// exchange is appended to the session history only when the remote call
// succeeds, so a failed attempt leaves the session as it was.
func (ch *Chat) Send(ctx context.Context, text string) (string, error) {
	userTurn := geminiContent{Role: "user", Parts: []geminiPart{{Text: text}}}

	payload := geminiGenerateContentRequest{
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: personaInstruction}}},
		Contents:          append(append([]geminiContent{}, ch.history...), userTurn),
	}

	var response geminiGenerateContentResponse
	path := fmt.Sprintf("/models/%s:generateContent", url.PathEscape(ch.client.chatModel))
	if err := ch.client.invoke(ctx, http.MethodPost, path, payload, &response); err != nil {
		return "", err
	}

	reply := firstText(response)
	ch.history = append(ch.history, userTurn, geminiContent{
		Role:  "model",
		Parts: []geminiPart{{Text: reply}},
	})

	ch.client.logger.Debug().
		Int("history_len", len(ch.history)).
		Msg("genai: chat turn exchanged")

	return reply, nil
}

func firstText(response geminiGenerateContentResponse) string {
	for _, candidate := range response.Candidates {
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				return part.Text
			}
		}
	}
	return ""
}
