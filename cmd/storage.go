package cmd

import (
	"fmt"

	"shareanything/config"
	"shareanything/db"
	"shareanything/store"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func storageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to TOML configuration file",
			EnvVars: []string{"SHARE_ANYTHING_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "database",
			Aliases: []string{"d"},
			Value:   config.DefaultDatabase,
			Usage:   "SQLite database file location",
			EnvVars: []string{"SHARE_ANYTHING_DATABASE"},
		},
		&cli.StringFlag{
			Name:    "namespace",
			Value:   config.DefaultNamespace,
			Usage:   "Storage namespace holding the posts",
			EnvVars: []string{"SHARE_ANYTHING_NAMESPACE"},
		},
	}
}

// loadConfig reads the config file if one is given and applies the flags
// that were set explicitly on top of it
func loadConfig(ctx *cli.Context) (*config.TomlConfig, error) {
	cfg := config.Default()
	if path := ctx.String("config"); path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = *loaded
	}

	if ctx.IsSet("database") {
		cfg.Storage.Database = ctx.String("database")
	}
	if ctx.IsSet("namespace") {
		cfg.Storage.Namespace = ctx.String("namespace")
	}
	if ctx.IsSet("ephemeral") {
		cfg.Storage.Ephemeral = ctx.Bool("ephemeral")
	}
	if ctx.IsSet("port") {
		cfg.Server.Port = ctx.Int("port")
	}
	if ctx.IsSet("hostname") {
		cfg.Server.Hostname = ctx.String("hostname")
	}
	if ctx.IsSet("allow-origins") {
		cfg.Server.AllowOrigins = ctx.String("allow-origins")
	}
	if ctx.IsSet("initial-fragment") {
		cfg.Router.InitialFragment = ctx.String("initial-fragment")
	}

	return &cfg, nil
}

// openPosts returns the posts collection for the configured namespace. The
// returned function closes the database.
func openPosts(cfg *config.TomlConfig) (*store.Posts, func(), error) {
	if cfg.Storage.Ephemeral {
		log.Info("Keeping posts in memory only")
		return store.New(store.NewMemoryStorage()), func() {}, nil
	}

	if err := db.Migrate(cfg.Storage.Database); err != nil {
		return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	database, err := db.Open(cfg.Storage.Database)
	if err != nil {
		return nil, nil, err
	}

	log.WithFields(log.Fields{
		"database":  cfg.Storage.Database,
		"namespace": cfg.Storage.Namespace,
	}).Info("Opened storage")

	closer := func() {
		if err := database.Close(); err != nil {
			log.Errorf("Error closing database: %v", err)
		}
	}
	return store.New(database.Namespace(cfg.Storage.Namespace)), closer, nil
}
