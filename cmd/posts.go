package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"shareanything/models"
	"shareanything/store"
	"shareanything/view"

	"github.com/cqroot/prompt"
	"github.com/urfave/cli/v2"
)

func listCmd() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "Print all stored posts",
		Description: `Prints every post in the configured namespace in storage order.

Returns each post as a JSON object on a single line. Use a tool like jq to process
the output.`,
		Flags: storageFlags(),
		Action: func(ctx *cli.Context) error {
			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}

			posts, closeStorage, err := openPosts(cfg)
			if err != nil {
				return err
			}
			defer closeStorage()

			if err := posts.Fetch(ctx.Context); err != nil {
				return err
			}

			posts.Each(func(post models.Post) {
				printStdout(&post)
			})
			return nil
		},
	}
}

func createCmd() *cli.Command {
	return &cli.Command{
		Name:  "create",
		Usage: "Create a post",
		Description: `Creates a post from the given fields, asking for any field
that was not given unless --no-input is set. Blank fields get their
default values.`,
		Flags: append(storageFlags(),
			&cli.StringFlag{Name: "title", Usage: "Post title"},
			&cli.StringFlag{Name: "author", Usage: "Post author"},
			&cli.StringFlag{Name: "body", Usage: "Post body"},
			&cli.BoolFlag{Name: "no-input", Usage: "Do not prompt for missing fields"},
		),
		Action: func(ctx *cli.Context) error {
			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}

			labels := map[string]string{"title": "Title:", "author": "Author:", "body": "Body:"}
			values := map[string]string{}
			for _, name := range []string{"title", "author", "body"} {
				if ctx.IsSet(name) || ctx.Bool("no-input") {
					values[name] = ctx.String(name)
					continue
				}
				value, err := prompt.New().Ask(labels[name]).Input("")
				if err != nil {
					return err
				}
				values[name] = value
			}

			posts, closeStorage, err := openPosts(cfg)
			if err != nil {
				return err
			}
			defer closeStorage()

			if err := posts.Fetch(ctx.Context); err != nil {
				return err
			}

			form := view.DefaultForm().Fill(func(name string) string {
				return values[name]
			})
			post, err := posts.Create(ctx.Context, form.Serialize())
			if err != nil {
				return err
			}

			printStdout(&post)
			return nil
		},
	}
}

func deleteCmd() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete posts",
		ArgsUsage: "<id>...",
		Flags:     storageFlags(),
		Action: func(ctx *cli.Context) error {
			if ctx.NArg() == 0 {
				return errors.New("please specify the id of at least one post")
			}

			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}

			posts, closeStorage, err := openPosts(cfg)
			if err != nil {
				return err
			}
			defer closeStorage()

			if err := posts.Fetch(ctx.Context); err != nil {
				return err
			}

			for _, id := range ctx.Args().Slice() {
				if err := posts.Destroy(ctx.Context, id); err != nil {
					if errors.Is(err, store.ErrNotFound) {
						return fmt.Errorf("no post with id %s", id)
					}
					return err
				}
				fmt.Println("Deleted", id)
			}
			return nil
		},
	}
}

func printStdout(post *models.Post) {
	// Print as single JSON string on a single line
	postJson, err := json.Marshal(post)
	if err == nil {
		fmt.Println(string(postJson))
	}
}
