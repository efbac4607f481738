package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func RootApp() *cli.App {
	return &cli.App{
		Name:  "share-anything",
		Usage: "Share short posts with anyone on the page",
		Description: `A small posts application. Posts are created through a form,
		listed on a single page and can be deleted again. Posts are kept in
		an SQLite database under the "share-anything" namespace.

		A companion router dispatches navigation paths to named routes and
		raises alerts for them.

		Flags can generally be set via environment variables, e.g.:

		--database => SHARE_ANYTHING_DATABASE=share-anything.db
		--port => SHARE_ANYTHING_PORT=3000
		`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"SHARE_ANYTHING_LOG_LEVEL"},
			},
		},
		Before: func(ctx *cli.Context) error {
			level, err := logrus.ParseLevel(ctx.String("log-level"))
			if err != nil {
				return err
			}
			logrus.SetLevel(level)
			return nil
		},
		Commands: []*cli.Command{
			serveCmd(),
			migrateCmd(),
			rollbackCmd(),
			listCmd(),
			createCmd(),
			deleteCmd(),
			routeCmd(),
		},
		Action: func(ctx *cli.Context) error {
			// Show help if no command is specified
			return ctx.App.Run([]string{"", "help"})
		},
	}
}
