package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"mimino/internal/credits"
	"mimino/internal/domain"
	"mimino/internal/infra"
	"mimino/internal/media"
	"mimino/internal/orchestrator"
)

// App is the handler container wiring the surfaces to HTTP.
type App struct {
	Cfg       *infra.Config
	Logger    infra.Logger
	Encoder   *media.Encoder
	Previews  *media.PreviewStore
	Editor    *orchestrator.EditorSurface
	Video     *orchestrator.VideoSurface
	Chat      *orchestrator.ChatSurface
	Ledger    *credits.Ledger
	Purchaser *credits.Purchaser
	Stats     *Stats
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, errorResponse{Code: code, Message: message})
}

// operationError maps orchestration failures onto the API error vocabulary.
// Validation problems are the caller's to correct; an exhausted ledger routes
// to the purchase flow; a credential-selection rejection carries its
// remediation hint instead of the raw remote message.
func (a *App) operationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrOperationInFlight):
		a.error(w, http.StatusConflict, "in_flight", err.Error())
	case errors.Is(err, domain.ErrNoImageSelected),
		errors.Is(err, domain.ErrEmptyInstruction),
		errors.Is(err, domain.ErrUnsupportedMediaType):
		a.error(w, http.StatusUnprocessableEntity, "validation", err.Error())
	case errors.Is(err, domain.ErrInsufficientCredits):
		a.error(w, http.StatusPaymentRequired, "purchase_required", "You are out of credits. Purchase a bundle to continue.")
	case errors.Is(err, domain.ErrCredentialSelection):
		a.error(w, http.StatusForbidden, "select_api_key", "Please select a valid paid API key to continue.")
	case errors.Is(err, domain.ErrNoRefundDue):
		a.error(w, http.StatusConflict, "no_refund_due", err.Error())
	default:
		a.Stats.OperationsFailed.Add(1)
		a.error(w, http.StatusBadGateway, "generation_failed", err.Error())
	}
}

type uploadRequest struct {
	Data     string `json:"data"`
	MimeType string `json:"mime_type"`
}

type uploadResponse struct {
	PreviewID string `json:"preview_id"`
	MimeType  string `json:"mime_type"`
	SizeBytes int    `json:"size_bytes"`
}

// readUpload accepts either a multipart form with an "image" file field or a
// JSON body carrying a base64 (optionally data-URL) payload, mirroring the
// two ways the browser front end delivers files.
func (a *App) readUpload(r *http.Request) (domain.MediaAsset, error) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			return domain.MediaAsset{}, err
		}
		file, header, err := r.FormFile("image")
		if err != nil {
			return domain.MediaAsset{}, err
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return domain.MediaAsset{}, err
		}
		return a.Encoder.Encode(data, header.Header.Get("Content-Type"))
	}

	var req uploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return domain.MediaAsset{}, err
	}
	return a.Encoder.EncodeBase64(req.Data, req.MimeType)
}

type outcomeResponse struct {
	Image string `json:"image,omitempty"`
	Video string `json:"video,omitempty"`
	Text  string `json:"text,omitempty"`
}

func outcomePayload(o *domain.GenerationOutcome) *outcomeResponse {
	if o == nil {
		return nil
	}
	return &outcomeResponse{
		Image: media.DataURL(o.ImageMime, o.ImageData),
		Video: o.VideoURI,
		Text:  o.Text,
	}
}

type stateResponse struct {
	Phase   string           `json:"phase"`
	Since   string           `json:"since,omitempty"`
	Outcome *outcomeResponse `json:"outcome,omitempty"`
	Error   string           `json:"error,omitempty"`
}

func statePayload(state orchestrator.OperationState) stateResponse {
	resp := stateResponse{
		Phase:   state.Phase.String(),
		Outcome: outcomePayload(state.Outcome),
	}
	if !state.Since.IsZero() {
		resp.Since = state.Since.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	if state.Err != nil {
		resp.Error = state.Err.Error()
	}
	return resp
}
