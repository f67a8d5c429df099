package intent

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"mimino/internal/domain"
	"mimino/internal/media"
)

// Intent is the operation a chat message resolves to.
type Intent int

const (
	IntentChat Intent = iota
	IntentImage
	IntentVideo
)

func (i Intent) String() string {
	switch i {
	case IntentImage:
		return "image"
	case IntentVideo:
		return "video"
	default:
		return "chat"
	}
}

// motionKeywords mark an attached image as an animation request.
var motionKeywords = []string{"video", "animate", "animation", "movie", "motion"}

// creationKeywords mark a text-only message as an image generation request.
var creationKeywords = []string{
	"generate image", "generate an image", "generate a photo",
	"create a photo", "create an image", "make an image", "draw",
}

// Classify decides which remote operation a chat message maps to. Rules, in
// priority order: attached media plus motion wording is a video request; any
// other attachment is an edit request; creation wording without media is a
// text-to-image request; everything else is plain chat.
func Classify(text string, hasMedia bool) Intent {
	lowered := strings.ToLower(text)
	if hasMedia {
		if containsAny(lowered, motionKeywords) {
			return IntentVideo
		}
		return IntentImage
	}
	if containsAny(lowered, creationKeywords) {
		return IntentImage
	}
	return IntentChat
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// Generator is the slice of the remote client the router dispatches to.
type Generator interface {
	EditImage(ctx context.Context, asset domain.MediaAsset, instruction string) (*domain.GenerationOutcome, error)
	GenerateImage(ctx context.Context, instruction string) (*domain.GenerationOutcome, error)
	GenerateVideo(ctx context.Context, asset domain.MediaAsset, instruction string) (string, error)
}

// Conversation is an opaque chat session handle.
type Conversation interface {
	Send(ctx context.Context, text string) (string, error)
}

// defaultAttachmentPrompt is sent to the model, not shown to the user, so it
// stays in English regardless of the request locale.
const defaultAttachmentPrompt = "What do you think of this?"

// replySet holds the canned user-facing strings for one locale.
type replySet struct {
	image   string
	video   string
	apology string
}

var replySets = map[string]replySet{
	"en": {
		image:   "Here is your image!",
		video:   "Here is your video!",
		apology: "Sorry, I encountered an error processing your request.",
	},
	"ka": {
		image:   "აი შენი სურათი!",
		video:   "აი შენი ვიდეო!",
		apology: "ბოდიში, თქვენი მოთხოვნის დამუშავებისას შეცდომა მოხდა.",
	},
}

func repliesFor(locale string) replySet {
	if rs, ok := replySets[locale]; ok {
		return rs
	}
	return replySets["en"]
}

// Router dispatches a classified chat message to the matching remote
// operation and normalizes every outcome, success or failure, into an
// assistant ConversationTurn. Remote errors are logged here and paraphrased
// for the user; the chat surface never shows them verbatim.
type Router struct {
	generator Generator
	logger    zerolog.Logger
}

func NewRouter(generator Generator, logger zerolog.Logger) *Router {
	return &Router{generator: generator, logger: logger}
}

// Route runs one chat message through the intent rules and returns the
// assistant's turn. Canned replies and apologies are rendered in the request
// locale.
func (r *Router) Route(ctx context.Context, conv Conversation, locale, text string, asset *domain.MediaAsset) domain.ConversationTurn {
	prompt := strings.TrimSpace(text)
	if prompt == "" && asset != nil {
		prompt = defaultAttachmentPrompt
	}

	intent := Classify(prompt, asset != nil)
	r.logger.Debug().
		Str("intent", intent.String()).
		Str("locale", locale).
		Msg("intent: message classified")

	switch intent {
	case IntentVideo:
		return r.videoTurn(ctx, locale, *asset, prompt)
	case IntentImage:
		return r.imageTurn(ctx, locale, asset, prompt)
	default:
		return r.chatTurn(ctx, locale, conv, prompt)
	}
}

func (r *Router) videoTurn(ctx context.Context, locale string, asset domain.MediaAsset, prompt string) domain.ConversationTurn {
	uri, err := r.generator.GenerateVideo(ctx, asset, prompt)
	if err != nil {
		return r.apologize(locale, "video generation failed", err)
	}
	return domain.ConversationTurn{
		Speaker: domain.SpeakerAssistant,
		Text:    repliesFor(locale).video,
		Media:   &domain.TurnMedia{URL: uri, Kind: domain.MediaKindVideo},
	}
}

func (r *Router) imageTurn(ctx context.Context, locale string, asset *domain.MediaAsset, prompt string) domain.ConversationTurn {
	var outcome *domain.GenerationOutcome
	var err error
	if asset != nil {
		outcome, err = r.generator.EditImage(ctx, *asset, prompt)
	} else {
		outcome, err = r.generator.GenerateImage(ctx, prompt)
	}
	if err != nil {
		return r.apologize(locale, "image generation failed", err)
	}

	turn := domain.ConversationTurn{Speaker: domain.SpeakerAssistant, Text: outcome.Text}
	if len(outcome.ImageData) > 0 {
		turn.Media = &domain.TurnMedia{
			URL:  media.DataURL(outcome.ImageMime, outcome.ImageData),
			Kind: domain.MediaKindImage,
		}
		if turn.Text == "" {
			turn.Text = repliesFor(locale).image
		}
	}
	return turn
}

func (r *Router) chatTurn(ctx context.Context, locale string, conv Conversation, prompt string) domain.ConversationTurn {
	reply, err := conv.Send(ctx, prompt)
	if err != nil {
		return r.apologize(locale, "chat send failed", err)
	}
	return domain.ConversationTurn{Speaker: domain.SpeakerAssistant, Text: reply}
}

func (r *Router) apologize(locale, msg string, err error) domain.ConversationTurn {
	r.logger.Error().Err(err).Msg("intent: " + msg)
	return domain.ConversationTurn{Speaker: domain.SpeakerAssistant, Text: repliesFor(locale).apology}
}
