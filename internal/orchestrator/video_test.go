package orchestrator

import (
	"context"
	"errors"
	"testing"

	"mimino/internal/credits"
	"mimino/internal/domain"
	"mimino/internal/media"
)

type stubVideoGen struct {
	uri   string
	err   error
	calls int
}

func (s *stubVideoGen) GenerateVideo(_ context.Context, _ domain.MediaAsset, _ string) (string, error) {
	s.calls++
	return s.uri, s.err
}

type stubKeys struct {
	ok     bool
	opened int
}

func (s *stubKeys) HasSelectedKey(context.Context) (bool, error) { return s.ok, nil }
func (s *stubKeys) OpenSelectKey(context.Context) error {
	s.opened++
	return nil
}

func newVideoSurface(gen *stubVideoGen, ledger *credits.Ledger, keys KeySelector) (*VideoSurface, *media.PreviewStore) {
	previews := media.NewPreviewStore()
	return NewVideoSurface(gen, ledger, keys, previews, discard()), previews
}

func TestVideoInsufficientCreditsShortCircuits(t *testing.T) {
	gen := &stubVideoGen{}
	surface, previews := newVideoSurface(gen, credits.NewLedger(0), nil)
	if err := surface.Select(storedAsset(t, previews)); err != nil {
		t.Fatalf("Select error: %v", err)
	}

	_, err := surface.Submit(context.Background(), "animate")
	if !errors.Is(err, domain.ErrInsufficientCredits) {
		t.Fatalf("expected ErrInsufficientCredits, got %v", err)
	}
	if gen.calls != 0 {
		t.Fatalf("generator must not be contacted, calls = %d", gen.calls)
	}
	if got := surface.State().Phase; got != PhaseFailed {
		t.Fatalf("state = %s, want failed", got)
	}
	if _, err := surface.Refund(); !errors.Is(err, domain.ErrNoRefundDue) {
		t.Fatalf("nothing was spent, expected ErrNoRefundDue, got %v", err)
	}
}

func TestVideoSuccessSpendsOneCredit(t *testing.T) {
	ledger := credits.NewLedger(1)
	gen := &stubVideoGen{uri: "https://files.example.com/clip.mp4?key=k"}
	surface, previews := newVideoSurface(gen, ledger, nil)
	asset := storedAsset(t, previews)
	if err := surface.Select(asset); err != nil {
		t.Fatalf("Select error: %v", err)
	}

	outcome, err := surface.Submit(context.Background(), "animate this")
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if outcome.VideoURI != gen.uri {
		t.Fatalf("uri = %q", outcome.VideoURI)
	}
	if ledger.Balance() != 0 {
		t.Fatalf("balance = %d, want 0", ledger.Balance())
	}
	if got := surface.State().Phase; got != PhaseSucceeded {
		t.Fatalf("state = %s", got)
	}
	if _, _, ok := previews.Get(asset.PreviewID); ok {
		t.Fatal("success must revoke the source preview")
	}
	if _, err := surface.Refund(); !errors.Is(err, domain.ErrNoRefundDue) {
		t.Fatalf("successful spend is not refundable, got %v", err)
	}
}

func TestVideoFailureRefundsExactlyOnce(t *testing.T) {
	ledger := credits.NewLedger(1)
	gen := &stubVideoGen{err: errors.New("gemini status 500: internal")}
	surface, previews := newVideoSurface(gen, ledger, nil)
	if err := surface.Select(storedAsset(t, previews)); err != nil {
		t.Fatalf("Select error: %v", err)
	}

	if _, err := surface.Submit(context.Background(), "animate"); err == nil {
		t.Fatal("expected submit failure")
	}
	if ledger.Balance() != 0 {
		t.Fatalf("failed attempt must keep the spend, balance = %d", ledger.Balance())
	}

	balance, err := surface.Refund()
	if err != nil {
		t.Fatalf("Refund error: %v", err)
	}
	if balance != 1 {
		t.Fatalf("balance after refund = %d, want 1", balance)
	}

	if _, err := surface.Refund(); !errors.Is(err, domain.ErrNoRefundDue) {
		t.Fatalf("second refund must be rejected, got %v", err)
	}
	if ledger.Balance() != 1 {
		t.Fatalf("balance = %d, want 1", ledger.Balance())
	}
}

func TestVideoEntityNotFoundMapsToCredentialSelection(t *testing.T) {
	ledger := credits.NewLedger(1)
	gen := &stubVideoGen{err: errors.New("gemini status 404: Requested entity was not found.")}
	surface, previews := newVideoSurface(gen, ledger, nil)
	if err := surface.Select(storedAsset(t, previews)); err != nil {
		t.Fatalf("Select error: %v", err)
	}

	_, err := surface.Submit(context.Background(), "animate")
	if !errors.Is(err, domain.ErrCredentialSelection) {
		t.Fatalf("expected ErrCredentialSelection, got %v", err)
	}
	if state := surface.State(); !errors.Is(state.Err, domain.ErrCredentialSelection) {
		t.Fatalf("state error = %v", state.Err)
	}
}

func TestVideoRequiresSelectedKey(t *testing.T) {
	ledger := credits.NewLedger(1)
	gen := &stubVideoGen{}
	keys := &stubKeys{ok: false}
	surface, previews := newVideoSurface(gen, ledger, keys)
	if err := surface.Select(storedAsset(t, previews)); err != nil {
		t.Fatalf("Select error: %v", err)
	}

	_, err := surface.Submit(context.Background(), "animate")
	if !errors.Is(err, domain.ErrCredentialSelection) {
		t.Fatalf("expected ErrCredentialSelection, got %v", err)
	}
	if ledger.Balance() != 1 {
		t.Fatalf("key gate precedes the spend, balance = %d", ledger.Balance())
	}
	if gen.calls != 0 {
		t.Fatalf("generator calls = %d, want 0", gen.calls)
	}

	if err := surface.SelectKey(context.Background()); err != nil {
		t.Fatalf("SelectKey error: %v", err)
	}
	if keys.opened != 1 {
		t.Fatalf("OpenSelectKey calls = %d, want 1", keys.opened)
	}
}
