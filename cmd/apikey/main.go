// Command apikey manages the API keys that guard the admin endpoints.
//
//	apikey create -name ops [-scopes admin]
//	apikey list
//	apikey revoke -id <uuid>
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	mw "github.com/kiranshivaraju/compass/internal/api/middleware"
	"github.com/kiranshivaraju/compass/internal/config"
	"github.com/kiranshivaraju/compass/internal/store"
	"github.com/kiranshivaraju/compass/pkg/models"
)

// KeyStore is the part of the store the command needs.
type KeyStore interface {
	CreateAPIKey(ctx context.Context, key *models.APIKey) error
	ListAPIKeys(ctx context.Context) ([]*models.APIKey, error)
	RevokeAPIKey(ctx context.Context, id uuid.UUID) error
}

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: apikey create|list|revoke [flags]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		slog.Error("connect database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := execute(ctx, store.NewPostgresStore(pool), os.Args[1:], os.Stdout); err != nil {
		slog.Error("apikey failed", "command", os.Args[1], "error", err)
		pool.Close()
		os.Exit(1)
	}
}

func execute(ctx context.Context, keys KeyStore, args []string, out io.Writer) error {
	switch args[0] {
	case "create":
		fs := flag.NewFlagSet("create", flag.ContinueOnError)
		name := fs.String("name", "", "key owner, e.g. ops")
		scopes := fs.String("scopes", mw.ScopeAdmin, "comma-separated scopes")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if strings.TrimSpace(*name) == "" {
			return fmt.Errorf("-name is required")
		}
		raw, key, err := mw.NewAPIKey(*name, splitScopes(*scopes))
		if err != nil {
			return err
		}
		if err := keys.CreateAPIKey(ctx, key); err != nil {
			return fmt.Errorf("storing api key: %w", err)
		}
		fmt.Fprintf(out, "id:     %s\nscopes: %s\nkey:    %s\n", key.ID, strings.Join(key.Scopes, ","), raw)
		fmt.Fprintln(out, "Store the key now; it cannot be shown again.")
		return nil

	case "list":
		list, err := keys.ListAPIKeys(ctx)
		if err != nil {
			return fmt.Errorf("listing api keys: %w", err)
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tPREFIX\tSCOPES\tLAST USED")
		for _, k := range list {
			lastUsed := "never"
			if k.LastUsedAt != nil {
				lastUsed = k.LastUsedAt.UTC().Format(time.RFC3339)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", k.ID, k.Name, k.KeyPrefix, strings.Join(k.Scopes, ","), lastUsed)
		}
		return tw.Flush()

	case "revoke":
		fs := flag.NewFlagSet("revoke", flag.ContinueOnError)
		idFlag := fs.String("id", "", "key id to revoke")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		id, err := uuid.Parse(*idFlag)
		if err != nil {
			return fmt.Errorf("invalid -id: %w", err)
		}
		if err := keys.RevokeAPIKey(ctx, id); err != nil {
			return fmt.Errorf("revoking api key %s: %w", id, err)
		}
		fmt.Fprintf(out, "revoked %s\n", id)
		return nil

	default:
		return fmt.Errorf("unknown command %q: want create, list or revoke", args[0])
	}
}

func splitScopes(s string) []string {
	var scopes []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			scopes = append(scopes, part)
		}
	}
	if scopes == nil {
		scopes = []string{}
	}
	return scopes
}
