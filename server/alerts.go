package server

import (
	"sync"

	"shareanything/models"
	"shareanything/router"

	log "github.com/sirupsen/logrus"
)

// Compile-time assertion that Alerts implements router.Alerter.
var _ router.Alerter = (*Alerts)(nil)

// Alerts delivers router alerts to the log and to SSE clients, and records
// the alerts raised while a navigation is being handled
type Alerts struct {
	broadcaster *Broadcaster

	navMu   sync.Mutex // serializes navigations
	mu      sync.Mutex
	pending []string
}

func NewAlerts(b *Broadcaster) *Alerts {
	return &Alerts{broadcaster: b}
}

func (a *Alerts) Alert(message string) {
	log.WithFields(log.Fields{
		"message": message,
	}).Info("Alert")

	a.mu.Lock()
	a.pending = append(a.pending, message)
	a.mu.Unlock()

	if a.broadcaster != nil {
		a.broadcaster.Broadcast(Event{Name: "alert", Data: models.AlertEvent{Message: message}})
	}
}

// Collect runs fn and returns the alerts raised during it
func (a *Alerts) Collect(fn func()) []string {
	a.navMu.Lock()
	defer a.navMu.Unlock()

	a.mu.Lock()
	a.pending = nil
	a.mu.Unlock()

	fn()

	a.mu.Lock()
	defer a.mu.Unlock()
	alerts := a.pending
	a.pending = nil
	if alerts == nil {
		alerts = []string{}
	}
	return alerts
}
