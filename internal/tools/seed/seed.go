// Package seed loads a TOML roster file and upserts its members into the
// points database. Member records are otherwise never created by the command
// interpreter, so this is how a deployment gets its roster in.
package seed

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/lumenad-public/HogwartsForSlack/internal/platform/config"
	"github.com/lumenad-public/HogwartsForSlack/internal/points/domain"
	"github.com/lumenad-public/HogwartsForSlack/internal/points/storage"
	"github.com/lumenad-public/HogwartsForSlack/internal/points/storage/sqlite"
)

// Config holds seed tool configuration.
type Config struct {
	DBPath     string `env:"HOGWARTS_POINTS_DB_PATH" envDefault:"points.db"`
	RosterPath string
	List       bool
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "path to the points SQLite database")
	fs.StringVar(&cfg.RosterPath, "roster", "", "path to the TOML roster file")
	fs.BoolVar(&cfg.List, "list", false, "list current members instead of seeding")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// roster mirrors the TOML roster file shape.
type roster struct {
	Member []Member `toml:"member"`
}

// Member is one roster entry.
type Member struct {
	Name     string `toml:"name"`
	House    string `toml:"house"`
	Points   int64  `toml:"points"`
	CanHas   bool   `toml:"can_has"`
	FullName string `toml:"fullname"`
	Nickname string `toml:"nickname"`
	Title    string `toml:"title"`
}

// Run executes the seed tool against the configured database.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open member store: %w", err)
	}
	defer store.Close()

	if cfg.List {
		return listMembers(ctx, store, out)
	}
	return seedRoster(ctx, store, cfg.RosterPath, out)
}

func listMembers(ctx context.Context, store storage.MemberStore, out io.Writer) error {
	records, err := store.ListMembers(ctx)
	if err != nil {
		return fmt.Errorf("list members: %w", err)
	}
	for _, record := range records {
		fmt.Fprintf(out, "%-20s %-12s %6d points  can_has=%t\n", record.Name, record.House, record.Points, record.CanHas)
	}
	fmt.Fprintf(out, "%d members\n", len(records))
	return nil
}

func seedRoster(ctx context.Context, store storage.MemberStore, rosterPath string, out io.Writer) error {
	if strings.TrimSpace(rosterPath) == "" {
		return fmt.Errorf("roster path is required")
	}

	var r roster
	if _, err := toml.DecodeFile(rosterPath, &r); err != nil {
		return fmt.Errorf("decode roster %s: %w", rosterPath, err)
	}
	if len(r.Member) == 0 {
		return fmt.Errorf("roster %s has no members", rosterPath)
	}

	records, err := RecordsFromRoster(r.Member)
	if err != nil {
		return err
	}
	for _, record := range records {
		if err := store.PutMember(ctx, record); err != nil {
			return fmt.Errorf("put member %s: %w", record.Name, err)
		}
	}
	fmt.Fprintf(out, "seeded %d members\n", len(records))
	return nil
}

// RecordsFromRoster validates and normalizes roster entries into store
// records. Names normalize the same way command tokens do, so the roster can
// carry "@Name" forms without breaking lookups.
func RecordsFromRoster(members []Member) ([]storage.MemberRecord, error) {
	records := make([]storage.MemberRecord, 0, len(members))
	seen := make(map[string]struct{}, len(members))
	for i, member := range members {
		name := domain.NormalizeName(member.Name)
		if name == "" {
			return nil, fmt.Errorf("roster member %d: name is required", i+1)
		}
		if _, ok := seen[name]; ok {
			return nil, fmt.Errorf("roster member %d: duplicate name %q", i+1, name)
		}
		seen[name] = struct{}{}

		house := domain.NormalizeName(member.House)
		if !domain.IsHouse(house) {
			return nil, fmt.Errorf("roster member %q: unknown house %q", name, member.House)
		}

		records = append(records, storage.MemberRecord{
			Name:     name,
			House:    house,
			Points:   member.Points,
			CanHas:   member.CanHas,
			FullName: strings.TrimSpace(member.FullName),
			Nickname: strings.TrimSpace(member.Nickname),
			Title:    strings.TrimSpace(member.Title),
		})
	}
	return records, nil
}
