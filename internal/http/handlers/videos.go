package handlers

import (
	"encoding/json"
	"net/http"
)

func (a *App) VideoSelect(w http.ResponseWriter, r *http.Request) {
	asset, err := a.readUpload(r)
	if err != nil {
		a.operationError(w, err)
		return
	}
	if err := a.Video.Select(asset); err != nil {
		a.Encoder.Release(asset)
		a.operationError(w, err)
		return
	}
	a.json(w, http.StatusOK, uploadResponse{
		PreviewID: asset.PreviewID,
		MimeType:  asset.MimeType,
		SizeBytes: len(asset.Data),
	})
}

func (a *App) VideoGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	outcome, err := a.Video.Submit(r.Context(), req.Instruction)
	if err != nil {
		a.operationError(w, err)
		return
	}
	a.Stats.VideosGenerated.Add(1)
	a.json(w, http.StatusOK, map[string]any{
		"outcome": outcomePayload(outcome),
		"credits": a.Ledger.Balance(),
	})
}

func (a *App) VideoState(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, statePayload(a.Video.State()))
}

func (a *App) VideoRefund(w http.ResponseWriter, r *http.Request) {
	balance, err := a.Video.Refund()
	if err != nil {
		a.operationError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"credits": balance})
}

func (a *App) VideoSelectKey(w http.ResponseWriter, r *http.Request) {
	if err := a.Video.SelectKey(r.Context()); err != nil {
		a.error(w, http.StatusBadGateway, "select_key_failed", err.Error())
		return
	}
	a.json(w, http.StatusOK, map[string]any{"status": "ok"})
}
