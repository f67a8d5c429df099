package credits

import (
	"sync"

	"mimino/internal/domain"
)

// Ledger is the process-lifetime counter of spendable operation credits. The
// committed balance never goes below zero: a spend that would do so is
// blocked with ErrInsufficientCredits rather than clamped, because the block
// is what triggers the purchase flow. The ledger is an explicit injected
// dependency, not an ambient singleton.
type Ledger struct {
	mu      sync.Mutex
	balance int
}

// NewLedger creates a ledger with the initial grant.
func NewLedger(initial int) *Ledger {
	if initial < 0 {
		initial = 0
	}
	return &Ledger{balance: initial}
}

// Balance returns the current committed balance.
func (l *Ledger) Balance() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance
}

// Spend deducts one credit, failing when the balance is zero.
func (l *Ledger) Spend() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balance <= 0 {
		return domain.ErrInsufficientCredits
	}
	l.balance--
	return nil
}

// Grant adds credits to the balance.
func (l *Ledger) Grant(n int) {
	if n <= 0 {
		return
	}
	l.mu.Lock()
	l.balance += n
	l.mu.Unlock()
}
