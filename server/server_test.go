package server_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"shareanything/models"
	"shareanything/router"
	"shareanything/server"
	"shareanything/store"
	"shareanything/view"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	app         *fiber.App
	page        *view.PostsView
	storage     *store.MemoryStorage
	history     *router.History
	broadcaster *server.Broadcaster
}

func newTestServer(t *testing.T, stored ...models.Post) *testServer {
	t.Helper()

	storage := store.NewMemoryStorage(stored...)
	posts := store.New(storage)
	tmpl, err := view.ParseTemplates()
	require.NoError(t, err)

	broadcaster := server.NewBroadcaster()
	t.Cleanup(server.BroadcastStore(posts, broadcaster))

	page := view.NewPostsView(posts, tmpl)
	require.NoError(t, page.Initialize(context.Background()))
	t.Cleanup(page.Close)

	alerts := server.NewAlerts(broadcaster)
	history := router.NewHistory()
	router.NewAppRouter(history, alerts)
	_, _, err = history.Start(router.StartOptions{Silent: true})
	require.NoError(t, err)
	t.Cleanup(history.Stop)

	app := server.Server(&server.ServerConfig{
		Page:        page,
		History:     history,
		Alerts:      alerts,
		Broadcaster: broadcaster,
	})

	return &testServer{
		app:         app,
		page:        page,
		storage:     storage,
		history:     history,
		broadcaster: broadcaster,
	}
}

func (s *testServer) do(t *testing.T, req *http.Request) (*http.Response, string) {
	t.Helper()
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func submitForm(values url.Values) *http.Request {
	req := httptest.NewRequest("POST", "/posts", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestFormSubmission(t *testing.T) {
	s := newTestServer(t)

	resp, _ := s.do(t, submitForm(url.Values{
		"title":  {"Hi"},
		"author": {""},
		"body":   {"World"},
		"submit": {"Share"},
	}))
	assert.Equal(t, 303, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	records, err := s.storage.FindAll(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Hi", records[0].Title)
	assert.Equal(t, "No author", records[0].Author)
	assert.Equal(t, "World", records[0].Body)
	assert.Empty(t, records[0].Extra)

	resp, body := s.do(t, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, body, `id="post_form"`)
	assert.Contains(t, body, `id="post-`+records[0].Id+`"`)
	assert.Contains(t, body, "World")
}

func TestDeleteControl(t *testing.T) {
	post := models.NewPost(map[string]string{"title": "bye"}, time.Now())
	s := newTestServer(t, post)

	resp, _ := s.do(t, httptest.NewRequest("POST", "/posts/"+post.Id+"/delete", nil))
	assert.Equal(t, 303, resp.StatusCode)

	assert.Equal(t, 0, s.page.Collection().Len())
	records, err := s.storage.FindAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)

	resp, _ = s.do(t, httptest.NewRequest("POST", "/posts/"+post.Id+"/delete", nil))
	assert.Equal(t, 404, resp.StatusCode)
}

func TestAPI(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest("POST", "/api/posts", strings.NewReader(`{"title":"Hi","author":""}`))
	req.Header.Set("Content-Type", "application/json")
	resp, body := s.do(t, req)
	require.Equal(t, 201, resp.StatusCode)

	var created models.Post
	require.NoError(t, json.Unmarshal([]byte(body), &created))
	assert.Equal(t, "Hi", created.Title)
	assert.Equal(t, "No author", created.Author)

	resp, body = s.do(t, httptest.NewRequest("GET", "/api/posts", nil))
	require.Equal(t, 200, resp.StatusCode)
	var listed []models.Post
	require.NoError(t, json.Unmarshal([]byte(body), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, created.Id, listed[0].Id)

	resp, _ = s.do(t, httptest.NewRequest("DELETE", "/api/posts/"+created.Id, nil))
	assert.Equal(t, 204, resp.StatusCode)
	assert.Equal(t, 0, s.page.Collection().Len())

	resp, _ = s.do(t, httptest.NewRequest("POST", "/api/posts", strings.NewReader(`not json`)))
	assert.Equal(t, 400, resp.StatusCode)
}

func TestNavigate(t *testing.T) {
	tests := []struct {
		path  string
		route string
		args  []string
		alert string
	}{
		{"/navigate/posts/42", router.RouteGetPost, []string{"42"}, "Get post number 42"},
		{"/navigate/cool", router.RouteAwesome, []string{}, "thats awesome"},
		{"/navigate/anything/else", router.RouteDefault, []string{"anything/else"}, "Your route was anything/else"},
	}

	s := newTestServer(t)
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, body := s.do(t, httptest.NewRequest("GET", tt.path, nil))
			require.Equal(t, 200, resp.StatusCode)

			var result struct {
				Matched bool         `json:"matched"`
				Match   router.Match `json:"match"`
				Alerts  []string     `json:"alerts"`
			}
			require.NoError(t, json.Unmarshal([]byte(body), &result))
			assert.True(t, result.Matched)
			assert.Equal(t, tt.route, result.Match.Route)
			assert.Equal(t, tt.args, result.Match.Args)
			assert.Equal(t, []string{tt.alert}, result.Alerts)
		})
	}
}

func TestNavigateBeforeStart(t *testing.T) {
	s := newTestServer(t)
	s.history.Stop()

	resp, _ := s.do(t, httptest.NewRequest("GET", "/navigate/cool", nil))
	assert.Equal(t, 503, resp.StatusCode)
}

func TestNavigateSameFragmentTwice(t *testing.T) {
	s := newTestServer(t)

	for i := 0; i < 2; i++ {
		resp, body := s.do(t, httptest.NewRequest("GET", "/navigate/cool", nil))
		require.Equal(t, 200, resp.StatusCode)

		var result struct {
			Matched bool     `json:"matched"`
			Alerts  []string `json:"alerts"`
		}
		require.NoError(t, json.Unmarshal([]byte(body), &result))
		assert.True(t, result.Matched, "request %d", i)
		assert.Equal(t, []string{"thats awesome"}, result.Alerts, "request %d", i)
	}
}

func TestEventStream(t *testing.T) {
	s := newTestServer(t)

	type streamResult struct {
		body string
		err  error
	}
	done := make(chan streamResult, 1)
	go func() {
		resp, err := s.app.Test(httptest.NewRequest("GET", "/events", nil), -1)
		if err != nil {
			done <- streamResult{err: err}
			return
		}
		body, err := io.ReadAll(resp.Body)
		done <- streamResult{body: string(body), err: err}
	}()

	require.Eventually(t, func() bool {
		return s.broadcaster.ClientCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	_, err := s.page.Collection().Create(context.Background(), map[string]string{"title": "Live"})
	require.NoError(t, err)

	// Shutdown closes the client channel which ends the stream
	s.broadcaster.Shutdown()

	select {
	case result := <-done:
		require.NoError(t, result.err)
		assert.True(t, strings.HasPrefix(result.body, "event: init\ndata: "))
		assert.Contains(t, result.body, "event: add-post\ndata: {")
		assert.Contains(t, result.body, `"title":"Live"`)
	case <-time.After(5 * time.Second):
		t.Fatal("event stream still open after broadcaster shutdown")
	}
	assert.Equal(t, 0, s.broadcaster.ClientCount())
}

func TestMetrics(t *testing.T) {
	s := newTestServer(t)
	s.do(t, submitForm(url.Values{"title": {"Hi"}}))

	resp, body := s.do(t, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, body, "share_anything_posts_created_total")
}

func TestBroadcastStore(t *testing.T) {
	s := newTestServer(t)

	events := make(chan server.Event, 10)
	s.broadcaster.AddClient("test", events)
	defer s.broadcaster.RemoveClient("test")

	s.do(t, submitForm(url.Values{"title": {"Hi"}}))
	event := <-events
	assert.Equal(t, "add-post", event.Name)
	post, ok := event.Data.(models.Post)
	require.True(t, ok)
	assert.Equal(t, "Hi", post.Title)

	s.do(t, httptest.NewRequest("GET", "/navigate/cool", nil))
	event = <-events
	assert.Equal(t, "alert", event.Name)
	assert.Equal(t, models.AlertEvent{Message: "thats awesome"}, event.Data)

	s.do(t, httptest.NewRequest("POST", "/posts/"+post.Id+"/delete", nil))
	event = <-events
	assert.Equal(t, "remove-post", event.Name)
}

func TestBroadcasterDropsWhenFull(t *testing.T) {
	b := server.NewBroadcaster()
	events := make(chan server.Event, 1)
	b.AddClient("slow", events)

	b.Broadcast(server.Event{Name: "first"})
	b.Broadcast(server.Event{Name: "second"})

	assert.Equal(t, "first", (<-events).Name)
	assert.Len(t, events, 0)

	b.Shutdown()
	assert.Equal(t, 0, b.ClientCount())
	_, ok := <-events
	assert.False(t, ok)

	// Removing after shutdown does not close twice
	b.RemoveClient("slow")
}
