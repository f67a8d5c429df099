package handlers

import (
	"context"
	"errors"
	"net/http"
)

func (a *App) CreditsGet(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{
		"credits": a.Ledger.Balance(),
		"bundle":  a.Purchaser.Bundle(),
	})
}

func (a *App) CreditsPurchase(w http.ResponseWriter, r *http.Request) {
	balance, err := a.Purchaser.Purchase(r.Context())
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			a.error(w, http.StatusRequestTimeout, "purchase_aborted", "purchase was cancelled")
			return
		}
		a.error(w, http.StatusBadGateway, "purchase_failed", err.Error())
		return
	}
	a.json(w, http.StatusOK, map[string]any{"credits": balance})
}
