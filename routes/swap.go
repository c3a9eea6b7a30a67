package routes

import (
	"net/http"
	"sync/atomic"
)

// SwapHandler serves with whichever handler was stored last. In-flight requests
// finish on the handler they started with.
type SwapHandler struct {
	current atomic.Pointer[http.Handler]
}

// NewSwapHandler starts with h.
func NewSwapHandler(h http.Handler) *SwapHandler {
	s := &SwapHandler{}
	s.Swap(h)
	return s
}

// Swap replaces the handler for new requests.
func (s *SwapHandler) Swap(h http.Handler) {
	s.current.Store(&h)
}

func (s *SwapHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	(*s.current.Load()).ServeHTTP(w, r)
}
