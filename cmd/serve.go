package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"shareanything/config"
	"shareanything/router"
	"shareanything/server"
	"shareanything/view"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the posts page",
		Description: `Starts the share-anything HTTP server.

		Serves the posts page with its creation form, the JSON API, router
		navigation under /navigate/ and a server-sent event stream under
		/events that pushes post and alert events to open pages.`,
		Flags: append(storageFlags(),
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Value:   config.DefaultPort,
				Usage:   "Port to listen on",
				EnvVars: []string{"SHARE_ANYTHING_PORT"},
			},
			&cli.StringFlag{
				Name:    "hostname",
				Aliases: []string{"n"},
				Value:   "localhost",
				Usage:   "The hostname where the server is running",
				EnvVars: []string{"SHARE_ANYTHING_HOSTNAME"},
			},
			&cli.StringFlag{
				Name:    "allow-origins",
				Usage:   "Comma separated origins allowed by CORS",
				EnvVars: []string{"SHARE_ANYTHING_ALLOW_ORIGINS"},
			},
			&cli.BoolFlag{
				Name:    "ephemeral",
				Usage:   "Keep posts in memory instead of the database",
				EnvVars: []string{"SHARE_ANYTHING_EPHEMERAL"},
			},
			&cli.StringFlag{
				Name:    "initial-fragment",
				Usage:   "Fragment dispatched when the router history starts",
				EnvVars: []string{"SHARE_ANYTHING_INITIAL_FRAGMENT"},
			},
		),
		Action: func(ctx *cli.Context) error {
			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}

			fmt.Println("Starting share-anything...")

			posts, closeStorage, err := openPosts(cfg)
			if err != nil {
				return err
			}
			defer closeStorage()

			tmpl, err := view.ParseTemplates()
			if err != nil {
				return fmt.Errorf("failed to parse templates: %w", err)
			}

			broadcaster := server.NewBroadcaster()
			defer server.BroadcastStore(posts, broadcaster)()

			page := view.NewPostsView(posts, tmpl)
			if err := page.Initialize(ctx.Context); err != nil {
				return err
			}
			defer page.Close()

			// Router history is process wide, started once here and stopped on shutdown
			alerts := server.NewAlerts(broadcaster)
			history := router.Default()
			appRouter := router.NewAppRouter(history, alerts)
			defer appRouter.Close()
			if _, _, err := history.Start(router.StartOptions{
				Fragment: cfg.Router.InitialFragment,
				Silent:   cfg.Router.InitialFragment == "",
			}); err != nil {
				return err
			}
			defer history.Stop()

			app := server.Server(&server.ServerConfig{
				Page:         page,
				History:      history,
				Alerts:       alerts,
				Broadcaster:  broadcaster,
				AllowOrigins: cfg.Server.AllowOrigins,
			})

			// Graceful shutdown
			c := make(chan os.Signal, 1)
			signal.Notify(c, os.Interrupt)
			go func() {
				<-c
				fmt.Println("Gracefully shutting down...")
				broadcaster.Shutdown()
				if err := app.ShutdownWithTimeout(60 * time.Second); err != nil {
					log.Errorf("Error shutting down server: %v", err)
				}
			}()

			addr := fmt.Sprintf(":%d", cfg.Server.Port)
			log.WithFields(log.Fields{
				"hostname": cfg.Server.Hostname,
				"addr":     addr,
			}).Info("Starting server")

			if err := app.Listen(addr); err != nil {
				return err
			}

			fmt.Println("Done!")
			return nil
		},
	}
}
