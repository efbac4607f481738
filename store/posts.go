package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"shareanything/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

var ErrNotFound = errors.New("post not found")

var (
	postsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "share_anything_posts_created_total",
		Help: "The total number of posts created",
	})

	postsDestroyed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "share_anything_posts_destroyed_total",
		Help: "The total number of posts destroyed",
	})

	postsFetched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "share_anything_fetches_total",
		Help: "The total number of collection fetches from storage",
	})
)

// EventKind selects which collection notifications a listener receives
type EventKind string

const (
	EventAdd    EventKind = "add"
	EventRemove EventKind = "remove"
	EventReset  EventKind = "reset"
	EventAll    EventKind = "all"
)

// Listener receives one of models.AddPostEvent, models.RemovePostEvent or
// models.ResetEvent
type Listener func(event interface{})

type subscription struct {
	id       int
	kind     EventKind
	listener Listener
}

// Posts is an ordered collection of posts kept in sync with a Storage
// namespace. Listeners are called synchronously after each mutation, outside
// the collection lock. Mutations and their notifications are serialized so
// listeners observe events in collection order; listeners may read the
// collection but must not mutate it.
type Posts struct {
	// Held for a whole mutation including its notification
	writeMu sync.Mutex

	mu      sync.RWMutex
	posts   []models.Post
	storage Storage
	now     func() time.Time

	subMu  sync.Mutex
	nextId int
	subs   []subscription
}

// New creates an empty collection backed by storage. Call Fetch to load the
// stored records.
func New(storage Storage) *Posts {
	return &Posts{
		storage: storage,
		now:     time.Now,
	}
}

// WithClock replaces the time source used for default post dates
func (c *Posts) WithClock(now func() time.Time) *Posts {
	c.now = now
	return c
}

// Subscribe registers listener for events of the given kind and returns a
// function that removes it
func (c *Posts) Subscribe(kind EventKind, listener Listener) func() {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	c.nextId++
	id := c.nextId
	c.subs = append(c.subs, subscription{id: id, kind: kind, listener: listener})

	return func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		c.subs = lo.Reject(c.subs, func(s subscription, _ int) bool { return s.id == id })
	}
}

func (c *Posts) publish(kind EventKind, event interface{}) {
	c.subMu.Lock()
	subs := lo.Filter(c.subs, func(s subscription, _ int) bool {
		return s.kind == kind || s.kind == EventAll
	})
	c.subMu.Unlock()

	for _, s := range subs {
		s.listener(event)
	}
}

// Fetch replaces the collection contents with the stored records and
// publishes a reset event
func (c *Posts) Fetch(ctx context.Context) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	posts, err := c.storage.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("fetch error: %w", err)
	}

	posts = lo.UniqBy(posts, func(p models.Post) string { return p.Id })

	c.mu.Lock()
	c.posts = posts
	c.mu.Unlock()

	postsFetched.Inc()
	log.WithFields(log.Fields{
		"count": len(posts),
	}).Info("Fetched posts")

	c.publish(EventReset, models.ResetEvent{Posts: append([]models.Post{}, posts...)})
	return nil
}

// Create builds a post from fields merged over the defaults, appends it,
// persists it and publishes an add event
func (c *Posts) Create(ctx context.Context, fields map[string]string) (models.Post, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	post := models.NewPost(fields, c.now())

	c.mu.Lock()
	c.posts = append(c.posts, post)
	c.mu.Unlock()

	if err := c.storage.Put(ctx, post); err != nil {
		c.mu.Lock()
		c.posts = lo.Reject(c.posts, func(p models.Post, _ int) bool { return p.Id == post.Id })
		c.mu.Unlock()
		return models.Post{}, fmt.Errorf("create error: %w", err)
	}

	postsCreated.Inc()
	log.WithFields(log.Fields{
		"id":     post.Id,
		"title":  post.Title,
		"author": post.Author,
	}).Info("Created post")

	c.publish(EventAdd, models.AddPostEvent{Post: post})
	return post, nil
}

// Destroy removes the post from the collection and from storage and
// publishes a remove event
func (c *Posts) Destroy(ctx context.Context, id string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.mu.Lock()
	post, index, ok := lo.FindIndexOf(c.posts, func(p models.Post) bool { return p.Id == id })
	if !ok {
		c.mu.Unlock()
		return ErrNotFound
	}
	c.posts = append(c.posts[:index:index], c.posts[index+1:]...)
	c.mu.Unlock()

	if err := c.storage.Delete(ctx, id); err != nil {
		c.mu.Lock()
		if index > len(c.posts) {
			index = len(c.posts)
		}
		c.posts = append(c.posts[:index:index], append([]models.Post{post}, c.posts[index:]...)...)
		c.mu.Unlock()
		return fmt.Errorf("destroy error: %w", err)
	}

	postsDestroyed.Inc()
	log.WithFields(log.Fields{
		"id": id,
	}).Info("Destroyed post")

	c.publish(EventRemove, models.RemovePostEvent{Post: post})
	return nil
}

// Len returns the number of posts in the collection
func (c *Posts) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.posts)
}

// Get returns the post with the given id
func (c *Posts) Get(id string) (models.Post, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return lo.Find(c.posts, func(p models.Post) bool { return p.Id == id })
}

// Posts returns a snapshot of the collection in order
func (c *Posts) Posts() []models.Post {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]models.Post{}, c.posts...)
}

// Each calls fn for every post in order on a snapshot of the collection
func (c *Posts) Each(fn func(post models.Post)) {
	for _, post := range c.Posts() {
		fn(post)
	}
}
