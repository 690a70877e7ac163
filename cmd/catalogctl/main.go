// Command catalogctl runs maintenance tasks against the catalog database.
//
//	catalogctl create-user -username owner -password secret -role admin
//	catalogctl add-vip-days -username alice -days 30
//	catalogctl sweep-tokens
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/Skotchmaster/video_catalog/internal/config"
	"github.com/Skotchmaster/video_catalog/internal/db"
	"github.com/Skotchmaster/video_catalog/internal/logging"
	"github.com/Skotchmaster/video_catalog/internal/models"
	"github.com/Skotchmaster/video_catalog/internal/repo"
	"github.com/Skotchmaster/video_catalog/internal/service"
)

type app struct {
	auth  *service.AuthService
	users *service.UserService
	repo  *repo.GormRepo
	out   io.Writer
}

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}

	cfg := config.Load()
	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")

	log := logging.New(cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(logging.IntoContext(context.Background(), log), time.Minute)
	defer cancel()

	gdb, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalw("db_init_failed", "error", err)
	}
	defer func() { _ = db.Close(gdb) }()

	r := repo.New(gdb)
	a := &app{
		auth:  &service.AuthService{Repo: r},
		users: &service.UserService{Repo: r, OwnerUsername: cfg.OwnerUsername},
		repo:  r,
		out:   os.Stdout,
	}

	if err := a.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		fail(log, err)
	}
}

func fail(log *zap.SugaredLogger, err error) {
	log.Errorw("command_failed", "error", err)
	_ = log.Sync()
	os.Exit(1)
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: catalogctl <create-user|add-vip-days|sweep-tokens> [flags]")
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "create-user":
		return a.createUser(ctx, args)
	case "add-vip-days":
		return a.addVIPDays(ctx, args)
	case "sweep-tokens":
		return a.sweepTokens(ctx, args)
	default:
		usage(a.out)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *app) createUser(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ContinueOnError)
	username := fs.String("username", "", "account name")
	password := fs.String("password", "", "initial password")
	role := fs.String("role", models.RoleUser, "admin, vip or user")
	if err := fs.Parse(args); err != nil {
		return err
	}

	u, err := a.auth.CreateUser(ctx, *username, *password, *role)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "created %s (%s) id=%s\n", u.Username, u.Role, u.ID)
	return nil
}

func (a *app) addVIPDays(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("add-vip-days", flag.ContinueOnError)
	username := fs.String("username", "", "account name")
	days := fs.Int("days", service.DefaultVIPDays, "days to add")
	if err := fs.Parse(args); err != nil {
		return err
	}

	u, err := a.repo.FindUserByUsername(ctx, service.NormalizeUsername(*username))
	if err != nil {
		return fmt.Errorf("find %q: %w", *username, err)
	}
	u, err = a.users.AddVIPDays(ctx, u.ID, *days)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s is %s until %s\n", u.Username, u.Role, u.VIPExpiresAt.Format(time.RFC3339))
	return nil
}

func (a *app) sweepTokens(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("sweep-tokens", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	n, err := a.auth.SweepExpired(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "deleted %d expired refresh tokens\n", n)
	return nil
}
