// Package points parses points service flags and launches the webhook
// service.
package points

import (
	"context"
	"flag"
	"strings"

	entrypoint "github.com/lumenad-public/HogwartsForSlack/internal/platform/cmd"
	server "github.com/lumenad-public/HogwartsForSlack/internal/points/app"
)

// Config holds points command configuration.
type Config struct {
	Addr       string   `env:"HOGWARTS_POINTS_ADDR" envDefault:"localhost:8087"`
	DBPath     string   `env:"HOGWARTS_POINTS_DB_PATH" envDefault:"points.db"`
	SigningKey string   `env:"HOGWARTS_SLACK_SIGNING_KEY"`
	Admins     []string `env:"HOGWARTS_ADMINS" envSeparator:","`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	var admins string
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "The webhook listen address")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to the points SQLite database")
	fs.StringVar(&admins, "admins", "", "Comma-separated privileged requester names (overrides env)")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if admins != "" {
		cfg.Admins = strings.Split(admins, ",")
	}
	return cfg, nil
}

// Run starts the points webhook service.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServicePoints, func(ctx context.Context) error {
		return server.Run(ctx, server.Config{
			Addr:       cfg.Addr,
			DBPath:     cfg.DBPath,
			SigningKey: cfg.SigningKey,
			Admins:     cfg.Admins,
		})
	})
}
