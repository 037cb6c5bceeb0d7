package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/angelmondragon/vendora-backend/pkg/config"
	"github.com/angelmondragon/vendora-backend/pkg/db"
	"github.com/angelmondragon/vendora-backend/pkg/logger"
	"github.com/angelmondragon/vendora-backend/pkg/migrate"
	"github.com/joho/godotenv"
)

// invocation is a parsed command line: migrate [-dir D] <command> [arg].
type invocation struct {
	dir  string
	name string
	arg  string
}

// command is one migrate subcommand. Commands that only touch the
// migrations directory leave withDB nil and run without a database.
type command struct {
	usage  string
	needs  string
	offDB  func(inv invocation, out io.Writer) error
	withDB func(ctx context.Context, sqlDB *sql.DB, inv invocation, out io.Writer) error
}

var commands = map[string]command{
	"up":       {usage: "apply all pending migrations", withDB: gooseCommand("up")},
	"down":     {usage: "roll back the latest migration", withDB: gooseCommand("down")},
	"status":   {usage: "list applied and pending migrations", withDB: gooseCommand("status")},
	"current":  {usage: "print the schema version", withDB: printVersion},
	"to":       {usage: "migrate up or down to VERSION (YYYYMMDDHHMMSS)", needs: "VERSION", withDB: migrateTo},
	"create":   {usage: "scaffold a new SQL migration called NAME", needs: "NAME", offDB: createMigration},
	"validate": {usage: "check migration files for naming and goose markers", offDB: validateMigrations},
}

func printVersion(ctx context.Context, sqlDB *sql.DB, _ invocation, out io.Writer) error {
	v, err := migrate.Version(ctx, sqlDB)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, v)
	return nil
}

func migrateTo(ctx context.Context, sqlDB *sql.DB, inv invocation, _ io.Writer) error {
	return migrate.MigrateToVersion(ctx, sqlDB, inv.dir, inv.arg)
}

func createMigration(inv invocation, out io.Writer) error {
	path, err := migrate.CreateSQLMigration(inv.dir, inv.arg)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "created migration:", path)
	return nil
}

func validateMigrations(inv invocation, out io.Writer) error {
	if err := migrate.ValidateDir(inv.dir); err != nil {
		return err
	}
	fmt.Fprintln(out, "migration validation passed")
	return nil
}

func gooseCommand(name string) func(context.Context, *sql.DB, invocation, io.Writer) error {
	return func(ctx context.Context, sqlDB *sql.DB, inv invocation, _ io.Writer) error {
		return migrate.Run(ctx, sqlDB, inv.dir, name)
	}
}

func main() {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	fs.Usage = func() { printUsage(fs.Output()) }
	dir := fs.String("dir", migrate.DefaultDir, "goose migrations directory")
	_ = fs.Parse(os.Args[1:])

	inv, err := parseInvocation(*dir, fs.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		printUsage(os.Stderr)
		os.Exit(2)
	}
	if err := run(context.Background(), inv, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "migrate %s: %v\n", inv.name, err)
		os.Exit(1)
	}
}

func parseInvocation(dir string, args []string) (invocation, error) {
	if len(args) == 0 {
		return invocation{}, errors.New("missing command")
	}
	inv := invocation{dir: dir, name: args[0]}
	cmd, ok := commands[inv.name]
	if !ok {
		return invocation{}, fmt.Errorf("unknown command %q", inv.name)
	}
	rest := args[1:]
	switch {
	case cmd.needs != "" && len(rest) != 1:
		return invocation{}, fmt.Errorf("%s needs exactly one %s argument", inv.name, cmd.needs)
	case cmd.needs == "" && len(rest) != 0:
		return invocation{}, fmt.Errorf("%s takes no arguments", inv.name)
	}
	if len(rest) == 1 {
		inv.arg = strings.TrimSpace(rest[0])
	}
	return inv, nil
}

func run(ctx context.Context, inv invocation, out io.Writer) error {
	cmd := commands[inv.name]
	if cmd.offDB != nil {
		return cmd.offDB(inv, out)
	}

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "cmd": inv.name, "dir": inv.dir})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer dbClient.Close()
	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		return fmt.Errorf("unwrap sql db: %w", err)
	}

	logg.Info(ctx, "running migration command")
	return cmd.withDB(ctx, sqlDB, inv, out)
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "usage: migrate [-dir DIR] <command> [arg]")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		cmd := commands[name]
		label := name
		if cmd.needs != "" {
			label += " " + cmd.needs
		}
		fmt.Fprintf(w, "  %-16s %s\n", label, cmd.usage)
	}
}
