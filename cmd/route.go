package cmd

import (
	"fmt"

	"shareanything/router"

	"github.com/urfave/cli/v2"
)

func routeCmd() *cli.Command {
	return &cli.Command{
		Name:      "route",
		Usage:     "Navigate the router through the given paths",
		ArgsUsage: "<path>...",
		Description: `Starts the router history and navigates to each path in turn,
printing the alerts raised by the matched routes.

Routes, first match wins:

  posts/:id   getPost
  cool        awesome
  *actions    defaultRoute`,
		Action: func(ctx *cli.Context) error {
			history := router.Default()
			r := router.NewAppRouter(history, router.AlerterFunc(func(message string) {
				fmt.Println("alert:", message)
			}))
			defer r.Close()

			if _, _, err := history.Start(router.StartOptions{Silent: true}); err != nil {
				return err
			}
			defer history.Stop()

			for _, path := range ctx.Args().Slice() {
				m, matched, err := history.Navigate(path, router.NavigateOptions{Trigger: true})
				if err != nil {
					return err
				}
				if matched {
					fmt.Printf("%s -> %s %q\n", path, m.Route, m.Args)
				}
			}
			return nil
		},
	}
}
