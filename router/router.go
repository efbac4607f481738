package router

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

var routeDispatches = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "share_anything_route_dispatches_total",
	Help: "The total number of navigations dispatched per route",
}, []string{"route"})

// Match describes a dispatched navigation
type Match struct {
	Route    string   `json:"route"`
	Pattern  string   `json:"pattern"`
	Fragment string   `json:"fragment"`
	Args     []string `json:"args"`
	Query    string   `json:"query,omitempty"`
}

// Handler is called with the captured path segments of a matched route
type Handler func(m Match)

type route struct {
	pattern string
	name    string
	re      *regexp.Regexp
	handler Handler
}

type listener struct {
	id      int
	handler Handler
}

// Router maps fragment patterns to named routes. Routes are tried in the
// order they were declared and the first match wins.
type Router struct {
	mu        sync.RWMutex
	history   *History
	routes    []route
	listeners map[string][]listener
	nextId    int
}

// New creates a router registered with history. A nil history means the
// process-wide Default history.
func New(history *History) *Router {
	if history == nil {
		history = Default()
	}
	r := &Router{history: history, listeners: make(map[string][]listener)}
	history.register(r)
	return r
}

// Close unregisters the router from its history. Closing twice is a no-op.
func (r *Router) Close() {
	r.history.unregister(r)
}

// Route declares a route. The optional handler runs before any
// "route:<name>" listeners.
func (r *Router) Route(pattern, name string, handler Handler) error {
	re, err := compilePattern(pattern)
	if err != nil {
		return fmt.Errorf("invalid route pattern %q: %w", pattern, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, route{pattern: pattern, name: name, re: re, handler: handler})
	return nil
}

// On subscribes to "route:<name>" for one route or "route" for every
// dispatch and returns a function that removes the subscription
func (r *Router) On(event string, handler Handler) func() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextId++
	id := r.nextId
	r.listeners[event] = append(r.listeners[event], listener{id: id, handler: handler})

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.listeners[event] = lo.Reject(r.listeners[event], func(l listener, _ int) bool { return l.id == id })
	}
}

// Match returns the first route matching the fragment
func (r *Router) Match(fragment string) (Match, bool) {
	m, _, ok := r.match(fragment)
	return m, ok
}

func (r *Router) match(fragment string) (Match, route, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rt := range r.routes {
		if args, query, ok := extractParameters(rt.re, fragment); ok {
			return Match{
				Route:    rt.name,
				Pattern:  rt.pattern,
				Fragment: fragment,
				Args:     args,
				Query:    query,
			}, rt, true
		}
	}
	return Match{}, route{}, false
}

// Dispatch runs the first matching route for the fragment. It reports
// whether any route matched.
func (r *Router) Dispatch(fragment string) (Match, bool) {
	m, rt, ok := r.match(fragment)
	if !ok {
		return Match{}, false
	}

	r.mu.RLock()
	named := append([]listener{}, r.listeners["route:"+m.Route]...)
	all := append([]listener{}, r.listeners["route"]...)
	r.mu.RUnlock()

	routeDispatches.WithLabelValues(m.Route).Inc()
	log.WithFields(log.Fields{
		"fragment": fragment,
		"route":    m.Route,
		"args":     m.Args,
	}).Info("Dispatching route")

	if rt.handler != nil {
		rt.handler(m)
	}
	for _, l := range named {
		l.handler(m)
	}
	for _, l := range all {
		l.handler(m)
	}
	return m, true
}
