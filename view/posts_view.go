package view

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"sync"

	"shareanything/models"
	"shareanything/store"

	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

// PostsView is the page: the creation form and the list of posts. It owns
// the collection and keeps the #posts container in sync with it.
type PostsView struct {
	Title string
	Form  Form

	posts     *store.Posts
	tmpl      *template.Template
	container *Container

	mu           sync.RWMutex
	views        map[string]*PostView
	unsubscribes []func()
}

func NewPostsView(posts *store.Posts, tmpl *template.Template) *PostsView {
	return &PostsView{
		Title:     "Share anything",
		Form:      DefaultForm(),
		posts:     posts,
		tmpl:      tmpl,
		container: NewContainer(ContainerId),
		views:     make(map[string]*PostView),
	}
}

// Initialize subscribes to the collection and fetches it from storage. The
// fetch reset renders the stored posts.
func (pv *PostsView) Initialize(ctx context.Context) error {
	pv.mu.Lock()
	pv.unsubscribes = append(pv.unsubscribes,
		pv.posts.Subscribe(store.EventAdd, func(event interface{}) {
			if e, ok := event.(models.AddPostEvent); ok {
				pv.renderPost(e.Post)
			}
		}),
		pv.posts.Subscribe(store.EventReset, func(event interface{}) {
			pv.Render()
		}),
		pv.posts.Subscribe(store.EventRemove, func(event interface{}) {
			if e, ok := event.(models.RemovePostEvent); ok {
				pv.removeView(e.Post.Id)
			}
		}),
	)
	pv.mu.Unlock()

	return pv.posts.Fetch(ctx)
}

// Close stops listening to the collection
func (pv *PostsView) Close() {
	pv.mu.Lock()
	defer pv.mu.Unlock()
	for _, unsubscribe := range pv.unsubscribes {
		unsubscribe()
	}
	pv.unsubscribes = nil
}

// Collection returns the posts owned by the page
func (pv *PostsView) Collection() *store.Posts {
	return pv.posts
}

// Container returns the #posts element
func (pv *PostsView) Container() *Container {
	return pv.container
}

// Render renders one item view per post in collection order
func (pv *PostsView) Render() {
	pv.container.Empty()
	pv.mu.Lock()
	pv.views = make(map[string]*PostView)
	pv.mu.Unlock()

	pv.posts.Each(pv.renderPost)
}

func (pv *PostsView) renderPost(post models.Post) {
	view := NewPostView(post, pv.posts, pv.tmpl)
	el, err := view.Render()
	if err != nil {
		log.WithFields(log.Fields{
			"id":    post.Id,
			"error": err,
		}).Error("Error rendering post")
	}

	pv.mu.Lock()
	pv.views[post.Id] = view
	pv.mu.Unlock()

	pv.container.Append(el)
}

func (pv *PostsView) removeView(id string) {
	pv.mu.Lock()
	view, ok := pv.views[id]
	delete(pv.views, id)
	pv.mu.Unlock()

	if ok {
		view.Remove()
	}
}

// View returns the item view rendering the post with the given id
func (pv *PostsView) View(id string) (*PostView, bool) {
	pv.mu.RLock()
	defer pv.mu.RUnlock()
	view, ok := pv.views[id]
	return view, ok
}

// Views returns the item views in the order they appear on the page
func (pv *PostsView) Views() []*PostView {
	pv.mu.RLock()
	defer pv.mu.RUnlock()

	byEl := lo.SliceToMap(lo.Values(pv.views), func(v *PostView) (*Element, *PostView) {
		return v.El(), v
	})
	return lo.FilterMap(pv.container.Children(), func(el *Element, _ int) (*PostView, bool) {
		v, ok := byEl[el]
		return v, ok
	})
}

// AddPost serializes the submitted form and creates a post from it
func (pv *PostsView) AddPost(ctx context.Context, form Form) (models.Post, error) {
	return pv.posts.Create(ctx, form.Serialize())
}

// DeletePost dispatches a delete click to the item view of the post
func (pv *PostsView) DeletePost(ctx context.Context, id string) error {
	view, ok := pv.View(id)
	if !ok {
		return store.ErrNotFound
	}
	return view.DeletePost(ctx)
}

type pageData struct {
	Title       string
	Form        Form
	ContainerId string
	Items       []template.HTML
}

// RenderPage writes the whole page to w
func (pv *PostsView) RenderPage(w io.Writer) error {
	items := lo.Map(pv.container.Children(), func(el *Element, _ int) template.HTML {
		return el.HTML()
	})

	if err := pv.tmpl.ExecuteTemplate(w, "page", pageData{
		Title:       pv.Title,
		Form:        pv.Form,
		ContainerId: pv.container.Id,
		Items:       items,
	}); err != nil {
		return fmt.Errorf("render error: %w", err)
	}
	return nil
}
