package handlers

import (
	"encoding/json"
	"net/http"

	"mimino/internal/domain"
	"mimino/internal/middleware"
)

type chatSendRequest struct {
	Text       string         `json:"text"`
	Attachment *uploadRequest `json:"attachment,omitempty"`
}

func (a *App) ChatSend(w http.ResponseWriter, r *http.Request) {
	var req chatSendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	var asset *domain.MediaAsset
	if req.Attachment != nil {
		encoded, err := a.Encoder.EncodeBase64(req.Attachment.Data, req.Attachment.MimeType)
		if err != nil {
			a.operationError(w, err)
			return
		}
		asset = &encoded
	}

	locale := middleware.LocaleFromContext(r.Context())
	turns, err := a.Chat.SendTurn(r.Context(), locale, req.Text, asset)
	if err != nil {
		if asset != nil {
			a.Encoder.Release(*asset)
		}
		a.operationError(w, err)
		return
	}
	a.Stats.ChatTurns.Add(1)
	a.json(w, http.StatusOK, map[string]any{"turns": turns})
}

func (a *App) ChatHistory(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{"turns": a.Chat.Turns()})
}

func (a *App) ChatReset(w http.ResponseWriter, r *http.Request) {
	turns, err := a.Chat.Reset(middleware.LocaleFromContext(r.Context()))
	if err != nil {
		a.operationError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"turns": turns})
}
