package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

type window struct {
	remaining int
	resetAt   time.Time
}

// RateLimit applies a fixed-window per-caller limit. Paths under any of the
// exempt prefixes bypass the limiter entirely: transcript re-renders refetch
// every attachment preview, and counting those would starve the operation
// endpoints the limit exists to protect.
func RateLimit(limit int, per time.Duration, exemptPrefixes ...string) func(http.Handler) http.Handler {
	var mu sync.Mutex
	windows := make(map[string]*window)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, prefix := range exemptPrefixes {
				if strings.HasPrefix(r.URL.Path, prefix) {
					next.ServeHTTP(w, r)
					return
				}
			}

			caller := callerIP(r)
			now := time.Now()

			mu.Lock()
			win, ok := windows[caller]
			if !ok || now.After(win.resetAt) {
				win = &window{remaining: limit, resetAt: now.Add(per)}
				windows[caller] = win
			}
			if win.remaining <= 0 {
				mu.Unlock()
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			win.remaining--
			mu.Unlock()

			next.ServeHTTP(w, r)
		})
	}
}

// callerIP identifies the caller for rate limiting: the first valid address
// in X-Forwarded-For, falling back to the connection's remote host.
func callerIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		for _, part := range strings.Split(forwarded, ",") {
			candidate := strings.TrimSpace(part)
			if candidate != "" && net.ParseIP(candidate) != nil {
				return candidate
			}
		}
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && net.ParseIP(host) != nil {
		return host
	}
	return r.RemoteAddr
}
