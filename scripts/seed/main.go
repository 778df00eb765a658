// Command seed loads development fixtures: accounts with bcrypt password
// hashes, two tenants, sample grants at every scope and the super
// administrator.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/pflag"
	"golang.org/x/crypto/bcrypt"

	"github.com/gameguild-gg/gameguild-sub001/internal/app"
	"github.com/gameguild-gg/gameguild-sub001/internal/bootstrap"
	"github.com/gameguild-gg/gameguild-sub001/internal/grants"
	"github.com/gameguild-gg/gameguild-sub001/internal/permission"
	"github.com/gameguild-gg/gameguild-sub001/internal/platform/db"
	"github.com/gameguild-gg/gameguild-sub001/internal/users"
)

type seedUser struct {
	email    string
	name     string
	password string
}

var devUsers = []seedUser{
	{"admin@gameguild.local", "Admin", "admin123"},
	{"moderator@gameguild.local", "Moderator", "moderator123"},
	{"member@gameguild.local", "Member", "member123"},
}

var devTenants = []struct {
	slug string
	name string
}{
	{"gameguild", "Game Guild"},
	{"indie-studio", "Indie Studio"},
}

func main() {
	if err := app.LoadDotEnv(); err != nil {
		slog.Default().Error("load .env", slog.Any("error", err))
		os.Exit(1)
	}
	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	adminEmail := devUsers[0].email
	flagSet := pflag.NewFlagSet("seed", pflag.ContinueOnError)
	flagSet.StringVar(&adminEmail, "admin-email", adminEmail, "account promoted to super administrator")
	flagSet.StringSliceVar(&cfg.BootstrapContentTypes, "content-types", cfg.BootstrapContentTypes, "content types granted to the super administrator")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}

	ctx := context.Background()
	pool, err := db.New(ctx, cfg.PGDSN, db.PoolOptions{MaxConns: 4})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	fmt.Println("→ Seeding users...")
	userIDs, err := seedUsers(ctx, pool)
	if err != nil {
		logger.Error("seed users", slog.Any("error", err))
		os.Exit(1)
	}
	fmt.Println("→ Seeding tenants...")
	tenantIDs, err := seedTenants(ctx, pool)
	if err != nil {
		logger.Error("seed tenants", slog.Any("error", err))
		os.Exit(1)
	}

	repo := grants.NewRepository(pool)
	fmt.Println("→ Seeding grants...")
	if err := seedGrants(ctx, repo, userIDs, tenantIDs); err != nil {
		logger.Error("seed grants", slog.Any("error", err))
		os.Exit(1)
	}

	fmt.Println("→ Ensuring super admin...")
	svc := bootstrap.NewService(users.NewService(users.NewRepository(pool)), repo, nil, logger)
	res, err := svc.EnsureSuperAdmin(ctx, adminEmail, cfg.BootstrapContentTypes)
	if err != nil {
		logger.Error("ensure super admin", slog.Any("error", err))
		os.Exit(1)
	}
	if res.Skipped {
		fmt.Println("  skipped:", res.Warning)
	}

	fmt.Println("✓ Seed complete at", time.Now().Format(time.RFC3339))
}

func seedUsers(ctx context.Context, pool *pgxpool.Pool) (map[string]uuid.UUID, error) {
	ids := make(map[string]uuid.UUID, len(devUsers))
	for _, u := range devUsers {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		var id uuid.UUID
		err = pool.QueryRow(ctx, `
			INSERT INTO users (id, email, name, password_hash, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, TRUE, NOW(), NOW())
			ON CONFLICT (LOWER(email)) DO UPDATE SET name = EXCLUDED.name, updated_at = NOW()
			RETURNING id`, uuid.New(), u.email, u.name, string(hash)).Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("user %s: %w", u.email, err)
		}
		ids[u.email] = id
	}
	return ids, nil
}

func seedTenants(ctx context.Context, pool *pgxpool.Pool) (map[string]uuid.UUID, error) {
	ids := make(map[string]uuid.UUID, len(devTenants))
	for _, t := range devTenants {
		var id uuid.UUID
		err := pool.QueryRow(ctx, `
			INSERT INTO tenants (id, slug, name)
			VALUES ($1, $2, $3)
			ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name
			RETURNING id`, uuid.New(), t.slug, t.name).Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("tenant %s: %w", t.slug, err)
		}
		ids[t.slug] = id
	}
	return ids, nil
}

func seedGrants(ctx context.Context, store grants.Transactor, userIDs, tenantIDs map[string]uuid.UUID) error {
	moderator := userIDs["moderator@gameguild.local"]
	member := userIDs["member@gameguild.local"]
	guild := grants.TenantOf(tenantIDs["gameguild"])
	studio := grants.TenantOf(tenantIDs["indie-studio"])
	trialEnds := time.Now().Add(30 * 24 * time.Hour)

	seed := []grants.Grant{
		// Defaults every account inherits on posts and comments.
		grants.NewGrant(grants.Key{Tenant: grants.Global(), Scope: grants.ContentTypeLevel(permission.ContentTypePost)},
			permission.Of(permission.Read, permission.Comment, permission.Reply, permission.Vote, permission.Share), nil),
		grants.NewGrant(grants.Key{Tenant: grants.Global(), Scope: grants.ContentTypeLevel(permission.ContentTypeComment)},
			permission.Of(permission.Read, permission.Reply, permission.React, permission.Report), nil),

		grants.NewGrant(grants.UserKey(moderator, guild, grants.TenantLevel()),
			permission.Of(permission.Read, permission.Edit, permission.Approve, permission.Reject, permission.Hide, permission.Lock, permission.Pin, permission.ManageMembers), nil),
		grants.NewGrant(grants.UserKey(moderator, guild, grants.ContentTypeLevel(permission.ContentTypePost)),
			permission.Of(permission.Feature, permission.Escalate, permission.Ban, permission.Mute), nil),

		grants.NewGrant(grants.UserKey(member, guild, grants.TenantLevel()),
			permission.Of(permission.Read, permission.Create, permission.Draft, permission.Submit), nil),
		grants.NewGrant(grants.UserKey(member, studio, grants.ContentTypeLevel(permission.ContentTypeProject)),
			permission.Of(permission.Read, permission.Create, permission.Edit, permission.Publish), &trialEnds),
		grants.NewGrant(grants.UserKey(member, studio, grants.ResourceLevel(permission.ContentTypeProject, uuid.NewSHA1(uuid.NameSpaceURL, []byte("gameguild:project:demo")))),
			permission.Of(permission.Delete, permission.Transfer, permission.Invite, permission.ManagePermissions), nil),
	}

	return store.WithTx(ctx, func(ctx context.Context, tx grants.TxStore) error {
		for _, g := range seed {
			if _, err := tx.Upsert(ctx, g); err != nil {
				return fmt.Errorf("grant %s: %w", g.Key(), err)
			}
		}
		return nil
	})
}
