package router

import (
	"errors"
	"sync"

	"github.com/samber/lo"
)

var (
	ErrAlreadyStarted = errors.New("history has already been started")
	ErrNotStarted     = errors.New("history has not been started")
)

// History tracks the current fragment and dispatches navigations to the
// routers registered with it. Routers created later take precedence over
// earlier ones.
//
// A process normally uses the Default history: call Start once during
// initialization and Stop during shutdown. Separate histories can be created
// with NewHistory for isolated use.
type History struct {
	mu       sync.Mutex
	started  bool
	fragment string
	routers  []*Router
}

// StartOptions configures History.Start
type StartOptions struct {
	// Fragment is the initial location
	Fragment string
	// Silent skips dispatching the initial fragment
	Silent bool
}

// NavigateOptions configures History.Navigate
type NavigateOptions struct {
	// Trigger dispatches the new fragment to the routers
	Trigger bool
}

var defaultHistory = NewHistory()

// Default returns the process-wide history
func Default() *History {
	return defaultHistory
}

func NewHistory() *History {
	return &History{}
}

func (h *History) register(r *Router) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.routers = append(h.routers, r)
}

func (h *History) unregister(r *Router) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.routers = lo.Without(h.routers, r)
}

// Routers returns the number of routers registered with the history
func (h *History) Routers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.routers)
}

// Start begins observing navigation and dispatches the initial fragment
// unless Silent is set. Starting twice returns ErrAlreadyStarted.
func (h *History) Start(opts StartOptions) (Match, bool, error) {
	h.mu.Lock()
	if h.started {
		h.mu.Unlock()
		return Match{}, false, ErrAlreadyStarted
	}
	h.started = true
	h.fragment = NormalizeFragment(opts.Fragment)
	fragment := h.fragment
	h.mu.Unlock()

	if opts.Silent {
		return Match{}, false, nil
	}
	m, ok := h.dispatch(fragment)
	return m, ok, nil
}

// Stop ends observation. Registered routers stay registered until closed and
// the history can be started again.
func (h *History) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.started = false
	h.fragment = ""
}

func (h *History) Started() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.started
}

// Fragment returns the current location
func (h *History) Fragment() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.fragment
}

// Navigate moves to fragment. Navigating to the current fragment does
// nothing. The routers only see the navigation when Trigger is set.
func (h *History) Navigate(fragment string, opts NavigateOptions) (Match, bool, error) {
	fragment = NormalizeFragment(fragment)

	h.mu.Lock()
	if !h.started {
		h.mu.Unlock()
		return Match{}, false, ErrNotStarted
	}
	if h.fragment == fragment {
		h.mu.Unlock()
		return Match{}, false, nil
	}
	h.fragment = fragment
	h.mu.Unlock()

	if !opts.Trigger {
		return Match{}, false, nil
	}
	m, ok := h.dispatch(fragment)
	return m, ok, nil
}

// LoadURL dispatches fragment regardless of the current location
func (h *History) LoadURL(fragment string) (Match, bool, error) {
	fragment = NormalizeFragment(fragment)

	h.mu.Lock()
	if !h.started {
		h.mu.Unlock()
		return Match{}, false, ErrNotStarted
	}
	h.fragment = fragment
	h.mu.Unlock()

	m, ok := h.dispatch(fragment)
	return m, ok, nil
}

func (h *History) dispatch(fragment string) (Match, bool) {
	h.mu.Lock()
	routers := append([]*Router{}, h.routers...)
	h.mu.Unlock()

	for i := len(routers) - 1; i >= 0; i-- {
		if m, ok := routers[i].Dispatch(fragment); ok {
			return m, true
		}
	}
	return Match{}, false
}
