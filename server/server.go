package server

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"shareanything/router"
	"shareanything/store"
	"shareanything/view"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"
)

type ServerConfig struct {

	// The page view owning the posts collection
	Page *view.PostsView

	// History receiving navigations
	History *router.History

	// Alerts raised by route handlers
	Alerts *Alerts

	// Broadcast channel to pass events to SSE clients
	Broadcaster *Broadcaster

	// Comma separated origins allowed by CORS, none if empty
	AllowOrigins string

	// Interval between SSE keep-alive pings
	PingInterval time.Duration
}

// navigationResponse is returned by the navigation endpoint
type navigationResponse struct {
	Matched bool          `json:"matched"`
	Match   *router.Match `json:"match,omitempty"`
	Alerts  []string      `json:"alerts"`
}

// Returns a fiber.App instance serving the posts page
func Server(config *ServerConfig) *fiber.App {

	bc := config.Broadcaster
	page := config.Page

	pingInterval := config.PingInterval
	if pingInterval <= 0 {
		pingInterval = 5 * time.Second
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	// Middleware to track the latency of each request
	app.Use(func(c *fiber.Ctx) error {
		// start timer
		start := time.Now()

		// next routes
		err := c.Next()

		// stop timer
		stop := time.Now()

		// Diff
		log.WithFields(log.Fields{
			"method":  c.Method(),
			"route":   c.Route().Path,
			"status":  c.Response().StatusCode(),
			"latency": stop.Sub(start),
		}).Info("Request")
		return err
	})

	app.Use(requestid.New(requestid.ConfigDefault))
	app.Use(compress.New())

	if config.AllowOrigins != "" {
		app.Use(cors.New(cors.Config{
			AllowOrigins: config.AllowOrigins,
			AllowHeaders: "Cache-Control",
		}))
	}

	app.Get("/", func(c *fiber.Ctx) error {
		var buf bytes.Buffer
		if err := page.RenderPage(&buf); err != nil {
			log.WithFields(log.Fields{
				"error": err,
			}).Error("Error rendering page")
			return c.Status(500).SendString("Error rendering page")
		}
		c.Type("html", "utf-8")
		return c.Send(buf.Bytes())
	})

	// Form submission
	app.Post("/posts", func(c *fiber.Ctx) error {
		form := page.Form.Fill(func(name string) string {
			return c.FormValue(name)
		})

		if _, err := page.AddPost(c.UserContext(), form); err != nil {
			log.WithFields(log.Fields{
				"error": err,
			}).Error("Error creating post")
			return c.Status(500).SendString("Error creating post")
		}
		return c.Redirect("/", fiber.StatusSeeOther)
	})

	// Delete control of an item view
	app.Post("/posts/:id/delete", func(c *fiber.Ctx) error {
		if status, msg := deletePost(c, page); status != 0 {
			return c.Status(status).SendString(msg)
		}
		return c.Redirect("/", fiber.StatusSeeOther)
	})

	app.Get("/api/posts", func(c *fiber.Ctx) error {
		return c.JSON(page.Collection().Posts())
	})

	app.Post("/api/posts", func(c *fiber.Ctx) error {
		fields := map[string]string{}
		if err := json.Unmarshal(c.Body(), &fields); err != nil {
			return c.Status(400).SendString("Invalid post")
		}

		// Same semantics as the form: blank values fall back to defaults
		for key, value := range fields {
			if value == "" {
				delete(fields, key)
			}
		}

		post, err := page.Collection().Create(c.UserContext(), fields)
		if err != nil {
			log.WithFields(log.Fields{
				"error": err,
			}).Error("Error creating post")
			return c.Status(500).SendString("Error creating post")
		}
		return c.Status(201).JSON(post)
	})

	app.Delete("/api/posts/:id", func(c *fiber.Ctx) error {
		if status, msg := deletePost(c, page); status != 0 {
			return c.Status(status).SendString(msg)
		}
		return c.SendStatus(204)
	})

	// Router navigation, the path after /navigate/ is the fragment. Every
	// request is a fresh page load so it always dispatches.
	app.Get("/navigate/*", func(c *fiber.Ctx) error {
		fragment := c.Params("*")
		if query := string(c.Request().URI().QueryString()); query != "" {
			fragment += "?" + query
		}

		var (
			m       router.Match
			matched bool
			err     error
		)
		alerts := config.Alerts.Collect(func() {
			m, matched, err = config.History.LoadURL(fragment)
		})
		if errors.Is(err, router.ErrNotStarted) {
			return c.Status(503).SendString("Router history not started")
		}
		if err != nil {
			return c.Status(500).SendString("Error navigating")
		}

		resp := navigationResponse{Matched: matched, Alerts: alerts}
		if matched {
			resp.Match = &m
		}
		return c.JSON(resp)
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	app.Get("/events", func(c *fiber.Ctx) error {
		c.Set("Content-Type", "text/event-stream")
		c.Set("Cache-Control", "no-cache")
		c.Set("Connection", "keep-alive")
		c.Set("Transfer-Encoding", "chunked")

		// Unique client key
		key := uuid.New().String()
		events := make(chan Event, 10) // Buffered channel

		// Register the client
		bc.AddClient(key, events)

		// Use StreamWriter to manage SSE streaming
		c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
			aliveChan := time.NewTicker(pingInterval)
			defer aliveChan.Stop()
			defer func() {
				log.Infof("Cleaning up SSE stream for client: %s", key)
				bc.RemoveClient(key)
			}()

			// Send initial event with client key
			fmt.Fprintf(w, "event: init\ndata: %s\n\n", key)
			if err := w.Flush(); err != nil {
				log.Errorf("Failed to send init event: %v", err)
				return
			}

			for {
				select {
				case <-aliveChan.C:
					// Send keep-alive pings
					if _, err := fmt.Fprintf(w, "event: ping\ndata: \n\n"); err != nil {
						log.Warnf("Failed to send ping to client %s: %v", key, err)
						return
					}
					if err := w.Flush(); err != nil {
						log.Warnf("Failed to flush ping for client %s: %v", key, err)
						return
					}

				case event, ok := <-events:
					if !ok {
						log.Warnf("Event channel closed for client %s", key)
						return
					}
					if err := writeEvent(w, event); err != nil {
						log.Warnf("Failed to send %s event to client %s: %v", event.Name, key, err)
						return
					}
				}
			}
		}))

		return nil
	})

	return app
}

// deletePost returns a non-zero status and message when the delete failed
func deletePost(c *fiber.Ctx, page *view.PostsView) (int, string) {
	id := c.Params("id")
	err := page.DeletePost(c.UserContext(), id)
	if errors.Is(err, store.ErrNotFound) {
		return 404, "Post not found"
	}
	if err != nil {
		log.WithFields(log.Fields{
			"id":    id,
			"error": err,
		}).Error("Error deleting post")
		return 500, "Error deleting post"
	}
	return 0, ""
}

func writeEvent(w *bufio.Writer, event Event) error {
	data, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Name, data); err != nil {
		return err
	}
	return w.Flush()
}
