package orchestrator

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"mimino/internal/domain"
	"mimino/internal/media"
)

type imageEditor interface {
	EditImage(ctx context.Context, asset domain.MediaAsset, instruction string) (*domain.GenerationOutcome, error)
}

// EditorSurface owns the single-shot image edit flow. One operation at a
// time: a submission while another is in flight is rejected at the gate, not
// queued. Unlike the chat surface, remote errors here reach the user
// verbatim.
type EditorSurface struct {
	mu       sync.Mutex
	editor   imageEditor
	previews *media.PreviewStore
	logger   zerolog.Logger

	selected *domain.MediaAsset
	state    OperationState
}

func NewEditorSurface(editor imageEditor, previews *media.PreviewStore, logger zerolog.Logger) *EditorSurface {
	return &EditorSurface{editor: editor, previews: previews, logger: logger}
}

// Select replaces the current image. The previous selection's preview handle
// is revoked and any prior outcome is discarded; the surface returns to Idle.
func (s *EditorSurface) Select(asset domain.MediaAsset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.InFlight() {
		return domain.ErrOperationInFlight
	}
	s.releaseSelectedLocked()
	s.selected = &asset
	s.state = OperationState{Phase: PhaseIdle}
	return nil
}

// Selected returns the currently selected asset, if any.
func (s *EditorSurface) Selected() *domain.MediaAsset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// State returns the current operation state.
func (s *EditorSurface) State() OperationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Submit runs one edit operation to completion. Validation failures leave the
// surface untouched; once dispatched, the operation settles in Succeeded or
// Failed and the selection is consumed on success.
func (s *EditorSurface) Submit(ctx context.Context, instruction string) (*domain.GenerationOutcome, error) {
	s.mu.Lock()
	if s.state.InFlight() {
		s.mu.Unlock()
		return nil, domain.ErrOperationInFlight
	}
	if s.selected == nil {
		s.mu.Unlock()
		return nil, domain.ErrNoImageSelected
	}
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		s.mu.Unlock()
		return nil, domain.ErrEmptyInstruction
	}
	asset := *s.selected
	s.state = OperationState{Phase: PhaseSubmitting}
	s.mu.Unlock()

	s.setAwaiting()

	outcome, err := s.editor.EditImage(ctx, asset, instruction)
	if err != nil {
		s.logger.Error().Err(err).Msg("editor: image edit failed")
		s.mu.Lock()
		s.state = OperationState{Phase: PhaseFailed, Err: err}
		s.mu.Unlock()
		return nil, err
	}

	s.mu.Lock()
	s.state = OperationState{Phase: PhaseSucceeded, Outcome: outcome}
	s.releaseSelectedLocked()
	s.mu.Unlock()
	return outcome, nil
}

func (s *EditorSurface) setAwaiting() {
	s.mu.Lock()
	s.state = OperationState{Phase: PhaseAwaitingRemote, Since: time.Now()}
	s.mu.Unlock()
}

func (s *EditorSurface) releaseSelectedLocked() {
	if s.selected != nil && s.previews != nil {
		s.previews.Revoke(s.selected.PreviewID)
	}
	s.selected = nil
}
