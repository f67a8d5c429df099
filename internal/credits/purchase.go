package credits

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Purchaser simulates the paid top-up flow: a confirmed submission resolves
// after a fixed delay and credits the ledger by the bundle size. No payment
// processor is ever contacted.
type Purchaser struct {
	ledger *Ledger
	delay  time.Duration
	bundle int
	logger zerolog.Logger
}

func NewPurchaser(ledger *Ledger, delay time.Duration, bundle int, logger zerolog.Logger) *Purchaser {
	if bundle <= 0 {
		bundle = 5
	}
	return &Purchaser{ledger: ledger, delay: delay, bundle: bundle, logger: logger}
}

// Purchase blocks for the simulated processing delay, then grants the bundle
// and returns the new balance. Cancelling the context before the delay
// elapses aborts without granting anything.
func (p *Purchaser) Purchase(ctx context.Context) (int, error) {
	if p.delay > 0 {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(p.delay):
		}
	}

	p.ledger.Grant(p.bundle)
	balance := p.ledger.Balance()

	p.logger.Info().
		Int("granted", p.bundle).
		Int("balance", balance).
		Msg("credits: simulated purchase settled")

	return balance, nil
}

// Bundle reports the credits granted per purchase.
func (p *Purchaser) Bundle() int {
	return p.bundle
}
