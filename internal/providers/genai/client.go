package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"mimino/internal/domain"
)

// Options controls how the Gemini client is configured.
type Options struct {
	APIKey          string
	BaseURL         string
	ImageModel      string
	VideoModel      string
	ChatModel       string
	PollInterval    time.Duration
	MaxPollAttempts int
	VideoResolution string
	VideoAspect     string
	HTTPClient      *http.Client
	Logger          *zerolog.Logger
}

// Client provides a lightweight facade over the Gemini REST API for the three
// remote operations this service needs: synchronous image editing, long-running
// video synthesis, and stateful chat. Failures are never retried here; each
// error is terminal for that operation attempt and retry is a caller decision.
type Client struct {
	apiKey          string
	baseURL         string
	imageModel      string
	videoModel      string
	chatModel       string
	pollInterval    time.Duration
	maxPollAttempts int
	videoResolution string
	videoAspect     string
	httpClient      *http.Client
	logger          zerolog.Logger
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts,omitempty"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

type geminiGenerateContentRequest struct {
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason,omitempty"`
}

type geminiGenerateContentResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Status  string `json:"status,omitempty"`
		Message string `json:"message,omitempty"`
	} `json:"error"`
}

// NewClient constructs a Gemini client. The API key is mandatory: its absence
// is a configuration error reported before any network activity.
func NewClient(opts Options) (*Client, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, domain.ErrMissingAPIKey
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}

	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = 8 * time.Second
	}

	var logger zerolog.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	} else {
		logger = zerolog.New(io.Discard)
	}

	return &Client{
		apiKey:          apiKey,
		baseURL:         baseURL,
		imageModel:      defaultString(opts.ImageModel, "gemini-2.5-flash-image"),
		videoModel:      defaultString(opts.VideoModel, "veo-3.0-generate-001"),
		chatModel:       defaultString(opts.ChatModel, "gemini-2.5-flash"),
		pollInterval:    pollInterval,
		maxPollAttempts: opts.MaxPollAttempts,
		videoResolution: defaultString(opts.VideoResolution, "720p"),
		videoAspect:     defaultString(opts.VideoAspect, "16:9"),
		httpClient:      httpClient,
		logger:          logger,
	}, nil
}

// EditImage performs a single synchronous round trip carrying the image
// payload and the natural-language instruction. The heterogeneous response
// parts are reduced first-of-kind: the first inline image becomes the result
// media, the first text part the annotation. A reply with neither is a valid
// textual-only outcome, not an error.
func (c *Client) EditImage(ctx context.Context, asset domain.MediaAsset, instruction string) (*domain.GenerationOutcome, error) {
	contents := []geminiContent{{
		Role: "user",
		Parts: []geminiPart{
			{InlineData: &geminiInlineData{
				MimeType: asset.MimeType,
				Data:     base64.StdEncoding.EncodeToString(asset.Data),
			}},
			{Text: instruction},
		},
	}}
	return c.generate(ctx, c.imageModel, contents)
}

// GenerateImage creates an image from text alone; no source image part is
// included.
func (c *Client) GenerateImage(ctx context.Context, instruction string) (*domain.GenerationOutcome, error) {
	contents := []geminiContent{{
		Role:  "user",
		Parts: []geminiPart{{Text: instruction}},
	}}
	return c.generate(ctx, c.imageModel, contents)
}

func (c *Client) generate(ctx context.Context, model string, contents []geminiContent) (*domain.GenerationOutcome, error) {
	payload := geminiGenerateContentRequest{Contents: contents}

	var response geminiGenerateContentResponse
	path := fmt.Sprintf("/models/%s:generateContent", url.PathEscape(model))
	if err := c.invoke(ctx, http.MethodPost, path, payload, &response); err != nil {
		return nil, err
	}

	parts, err := decodeParts(response)
	if err != nil {
		return nil, err
	}
	outcome := reduceParts(parts)

	c.logger.Debug().
		Str("model", model).
		Bool("has_image", len(outcome.ImageData) > 0).
		Bool("has_text", outcome.Text != "").
		Msg("genai: generate content resolved")

	return outcome, nil
}

// PartKind tags one element of a heterogeneous model reply.
type PartKind int

const (
	PartText PartKind = iota + 1
	PartImage
)

// Part is the tagged variant produced by the remote boundary adapter. The
// duck-typed wire parts are converted here once, so downstream code never
// sniffs structure.
type Part struct {
	Kind     PartKind
	Text     string
	MimeType string
	Data     []byte
}

func decodeParts(response geminiGenerateContentResponse) ([]Part, error) {
	var parts []Part
	for _, candidate := range response.Candidates {
		for _, p := range candidate.Content.Parts {
			switch {
			case p.InlineData != nil && p.InlineData.Data != "":
				data, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
				if err != nil {
					return nil, fmt.Errorf("decode inline data: %w", err)
				}
				parts = append(parts, Part{Kind: PartImage, MimeType: p.InlineData.MimeType, Data: data})
			case p.Text != "":
				parts = append(parts, Part{Kind: PartText, Text: p.Text})
			}
		}
	}
	return parts, nil
}

// reduceParts applies first-of-kind-wins over the tagged parts.
func reduceParts(parts []Part) *domain.GenerationOutcome {
	outcome := &domain.GenerationOutcome{}
	for _, p := range parts {
		switch p.Kind {
		case PartImage:
			if outcome.ImageData == nil {
				outcome.ImageData = p.Data
				outcome.ImageMime = defaultString(p.MimeType, "image/png")
			}
		case PartText:
			if outcome.Text == "" {
				outcome.Text = p.Text
			}
		}
	}
	return outcome
}

// Ping issues a minimal generation request to verify the configured key.
func (c *Client) Ping(ctx context.Context) error {
	payload := geminiGenerateContentRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: "ping"}}}},
	}
	var response geminiGenerateContentResponse
	path := fmt.Sprintf("/models/%s:generateContent", url.PathEscape(c.chatModel))
	return c.invoke(ctx, http.MethodPost, path, payload, &response)
}

func (c *Client) invoke(ctx context.Context, method, path string, payload any, out any) error {
	endpoint := c.baseURL + path

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	q := req.URL.Query()
	q.Set("key", c.apiKey)
	req.URL.RawQuery = q.Encode()
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("invoke gemini: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr geminiErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("gemini status %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		data, _ := io.ReadAll(resp.Body)
		if len(data) > 0 {
			return fmt.Errorf("gemini status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
		}
		return fmt.Errorf("gemini status %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode gemini response: %w", err)
		}
	}
	return nil
}

func defaultString(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
