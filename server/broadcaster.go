package server

import (
	"sync"

	"shareanything/models"
	"shareanything/store"

	log "github.com/sirupsen/logrus"
)

// Event is a server-sent event pushed to browsers
type Event struct {
	Name string
	Data interface{}
}

// Broadcaster fans events out to SSE clients
type Broadcaster struct {
	sync.RWMutex
	clients map[string]chan Event
}

// Constructor
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		clients: make(map[string]chan Event),
	}
}

func (b *Broadcaster) Broadcast(event Event) {
	b.RLock()
	defer b.RUnlock()

	for id, client := range b.clients {
		select {
		case client <- event: // Non-blocking send
		default:
			log.Warnf("Client channel full, skipping %s event for client: %v", event.Name, id)
		}
	}
}

// Function to add a client to the broadcaster
func (b *Broadcaster) AddClient(key string, client chan Event) {
	b.Lock()
	defer b.Unlock()
	b.clients[key] = client
	log.WithFields(log.Fields{
		"key":   key,
		"count": len(b.clients),
	}).Info("Adding client to broadcaster")
}

// Function to remove a client from the broadcaster
func (b *Broadcaster) RemoveClient(key string) {
	b.Lock()
	defer b.Unlock()

	if client, ok := b.clients[key]; ok {
		close(client)
		delete(b.clients, key)
	}

	log.WithFields(log.Fields{
		"key":   key,
		"count": len(b.clients),
	}).Info("Removed client from broadcaster")
}

func (b *Broadcaster) ClientCount() int {
	b.RLock()
	defer b.RUnlock()
	return len(b.clients)
}

func (b *Broadcaster) Shutdown() {
	log.Info("Shutting down broadcaster")
	b.Lock()
	defer b.Unlock()
	for key, client := range b.clients {
		close(client)
		delete(b.clients, key)
	}
}

// BroadcastStore forwards collection notifications to SSE clients until the
// returned function is called
func BroadcastStore(posts *store.Posts, b *Broadcaster) func() {
	return posts.Subscribe(store.EventAll, func(event interface{}) {
		switch event := event.(type) {
		case models.AddPostEvent:
			b.Broadcast(Event{Name: "add-post", Data: event.Post})
		case models.RemovePostEvent:
			b.Broadcast(Event{Name: "remove-post", Data: event.Post})
		case models.ResetEvent:
			b.Broadcast(Event{Name: "reset", Data: map[string]int{"count": len(event.Posts)}})
		default:
			log.Info("Unknown store event type")
		}
	})
}
