package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"mimino/internal/credits"
	"mimino/internal/domain"
	"mimino/internal/media"
)

type videoGenerator interface {
	GenerateVideo(ctx context.Context, asset domain.MediaAsset, instruction string) (string, error)
}

// entityNotFoundSignature marks the remote rejection that means the selected
// credential has no billing enabled, not a generic failure.
const entityNotFoundSignature = "Requested entity was not found"

// VideoSurface owns the credit-gated video flow. One credit is deducted
// optimistically before the remote result is known; a failed generation does
// not refund it automatically — Refund is an explicit separate action.
type VideoSurface struct {
	mu        sync.Mutex
	generator videoGenerator
	ledger    *credits.Ledger
	keys      KeySelector
	previews  *media.PreviewStore
	logger    zerolog.Logger

	selected   *domain.MediaAsset
	state      OperationState
	refundable bool
}

func NewVideoSurface(generator videoGenerator, ledger *credits.Ledger, keys KeySelector, previews *media.PreviewStore, logger zerolog.Logger) *VideoSurface {
	if keys == nil {
		keys = NoopKeySelector{}
	}
	return &VideoSurface{
		generator: generator,
		ledger:    ledger,
		keys:      keys,
		previews:  previews,
		logger:    logger,
	}
}

// Select replaces the reference image, discarding the previous selection and
// outcome. Rejected while an operation is in flight.
func (s *VideoSurface) Select(asset domain.MediaAsset) error {
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

// State returns the current operation state.
func (s *VideoSurface) State() OperationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Submit runs one video generation to completion. Order of the gates matters:
// local validation first (never touches state), then the credential hook,
// then the optimistic credit spend — a zero balance short-circuits to Failed
// before any remote call so the caller can offer the purchase flow.
func (s *VideoSurface) Submit(ctx context.Context, instruction string) (*domain.GenerationOutcome, error) {
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
	s.refundable = false
	s.mu.Unlock()

	if ok, err := s.keys.HasSelectedKey(ctx); err == nil && !ok {
		return nil, s.fail(domain.ErrCredentialSelection)
	}

	if err := s.ledger.Spend(); err != nil {
		return nil, s.fail(err)
	}

	s.mu.Lock()
	s.state = OperationState{Phase: PhaseAwaitingRemote, Since: time.Now()}
	s.refundable = true
	s.mu.Unlock()

	s.logger.Info().Int("balance", s.ledger.Balance()).Msg("video: credit spent, job dispatched")

	uri, err := s.generator.GenerateVideo(ctx, asset, instruction)
	if err != nil {
		s.logger.Error().Err(err).Msg("video: generation failed")
		if strings.Contains(err.Error(), entityNotFoundSignature) {
			err = fmt.Errorf("%w: select a billing-enabled key and retry", domain.ErrCredentialSelection)
		}
		return nil, s.fail(err)
	}

	outcome := &domain.GenerationOutcome{VideoURI: uri}
	s.mu.Lock()
	s.state = OperationState{Phase: PhaseSucceeded, Outcome: outcome}
	s.refundable = false
	s.releaseSelectedLocked()
	s.mu.Unlock()
	return outcome, nil
}

// Refund returns the credit of the most recent failed attempt. It is only
// valid while the surface sits in Failed with an unreturned spend; everything
// else reports ErrNoRefundDue.
func (s *VideoSurface) Refund() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Phase != PhaseFailed || !s.refundable {
		return s.ledger.Balance(), domain.ErrNoRefundDue
	}
	s.ledger.Grant(1)
	s.refundable = false
	s.logger.Info().Int("balance", s.ledger.Balance()).Msg("video: failed attempt refunded")
	return s.ledger.Balance(), nil
}

// SelectKey forwards to the host-environment credential selection hook.
func (s *VideoSurface) SelectKey(ctx context.Context) error {
	return s.keys.OpenSelectKey(ctx)
}

func (s *VideoSurface) fail(err error) error {
	s.mu.Lock()
	s.state = OperationState{Phase: PhaseFailed, Err: err}
	s.mu.Unlock()
	return err
}

func (s *VideoSurface) releaseSelectedLocked() {
	if s.selected != nil && s.previews != nil {
		s.previews.Revoke(s.selected.PreviewID)
	}
	s.selected = nil
}
