package orchestrator

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"mimino/internal/domain"
	"mimino/internal/intent"
	"mimino/internal/media"
)

var greetingTexts = map[string]string{
	"en": "Gamarjoba! I am Mimino. I can chat, generate photos, edit images, and even create videos! Just ask or upload a file.",
	"ka": "გამარჯობა! მე ვარ მიმინო. შემიძლია საუბარი, ფოტოების გენერაცია, სურათების რედაქტირება და ვიდეოების შექმნაც! უბრალოდ მკითხე ან ატვირთე ფაილი.",
}

var resetTexts = map[string]string{
	"en": "Fresh start! Send me a photo to edit, ask for a new image, or let's just talk!",
	"ka": "ახალი დასაწყისი! გამომიგზავნე ფოტო რედაქტირებისთვის, მთხოვე ახალი სურათი, ან უბრალოდ ვისაუბროთ!",
}

func greetingFor(locale string) string {
	if text, ok := greetingTexts[locale]; ok {
		return text
	}
	return greetingTexts["en"]
}

func resetFor(locale string) string {
	if text, ok := resetTexts[locale]; ok {
		return text
	}
	return resetTexts["en"]
}

// ChatSurface owns the multimodal chat flow: an append-only transcript plus
// the opaque remote session handle. The transcript references attachment
// previews, so their handles stay alive until the session is reset.
type ChatSurface struct {
	mu        sync.Mutex
	router    *intent.Router
	startChat func() intent.Conversation
	previews  *media.PreviewStore
	logger    zerolog.Logger

	conv     intent.Conversation
	turns    []domain.ConversationTurn
	attached []string
	busy     bool
}

// NewChatSurface opens the transcript with a greeting in the service's
// default locale; later turns follow each request's own locale.
func NewChatSurface(router *intent.Router, startChat func() intent.Conversation, previews *media.PreviewStore, defaultLocale string, logger zerolog.Logger) *ChatSurface {
	return &ChatSurface{
		router:    router,
		startChat: startChat,
		previews:  previews,
		logger:    logger,
		conv:      startChat(),
		turns:     []domain.ConversationTurn{{Speaker: domain.SpeakerAssistant, Text: greetingFor(defaultLocale)}},
	}
}

// Turns returns a copy of the transcript.
func (s *ChatSurface) Turns() []domain.ConversationTurn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.ConversationTurn(nil), s.turns...)
}

// SendTurn appends the user's turn, routes it through the intent rules, and
// appends the assistant's reply. The two appended turns are returned. Only
// one send may be in flight at a time.
func (s *ChatSurface) SendTurn(ctx context.Context, locale, text string, asset *domain.MediaAsset) ([]domain.ConversationTurn, error) {
	text = strings.TrimSpace(text)
	if text == "" && asset == nil {
		return nil, domain.ErrEmptyInstruction
	}

	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return nil, domain.ErrOperationInFlight
	}
	s.busy = true

	userTurn := domain.ConversationTurn{Speaker: domain.SpeakerUser, Text: text}
	if asset != nil {
		userTurn.Media = &domain.TurnMedia{
			URL:  "/v1/previews/" + asset.PreviewID,
			Kind: domain.MediaKindImage,
		}
		s.attached = append(s.attached, asset.PreviewID)
	}
	s.turns = append(s.turns, userTurn)
	conv := s.conv
	s.mu.Unlock()

	reply := s.router.Route(ctx, conv, locale, text, asset)

	s.mu.Lock()
	s.turns = append(s.turns, reply)
	s.busy = false
	s.mu.Unlock()

	return []domain.ConversationTurn{userTurn, reply}, nil
}

// Reset discards the transcript and the old session handle wholesale,
// leaving exactly one greeting turn and a fresh remote session. Attachment
// previews referenced by the old transcript are revoked.
func (s *ChatSurface) Reset(locale string) ([]domain.ConversationTurn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return nil, domain.ErrOperationInFlight
	}

	if s.previews != nil {
		for _, id := range s.attached {
			s.previews.Revoke(id)
		}
	}
	s.attached = nil
	s.conv = s.startChat()
	s.turns = []domain.ConversationTurn{{Speaker: domain.SpeakerAssistant, Text: resetFor(locale)}}
	s.logger.Info().Str("locale", locale).Msg("chat: session reset")

	return append([]domain.ConversationTurn(nil), s.turns...), nil
}
