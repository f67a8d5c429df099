package handlers

import (
	"encoding/json"
	"net/http"
)

func (a *App) EditorSelect(w http.ResponseWriter, r *http.Request) {
	asset, err := a.readUpload(r)
	if err != nil {
		a.operationError(w, err)
		return
	}
	if err := a.Editor.Select(asset); err != nil {
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

type generateRequest struct {
	Instruction string `json:"instruction"`
}

func (a *App) EditorGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	outcome, err := a.Editor.Submit(r.Context(), req.Instruction)
	if err != nil {
		a.operationError(w, err)
		return
	}
	a.Stats.ImagesGenerated.Add(1)
	a.json(w, http.StatusOK, map[string]any{"outcome": outcomePayload(outcome)})
}

func (a *App) EditorState(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, statePayload(a.Editor.State()))
}
