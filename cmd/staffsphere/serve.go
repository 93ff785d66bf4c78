package main

import (
	"errors"
	"fmt"
	"log"

	"github.com/dori/staffsphere/internal/app"
	"github.com/dori/staffsphere/internal/auth"
	"github.com/dori/staffsphere/internal/db"
	"github.com/dori/staffsphere/internal/server"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the board REST server",
	Long: `Serve the board API and its websocket change feed.

Authentication is on when server.jwt_secret (or STAFFSPHERE_JWT_SECRET)
is set; mint tokens with "staffsphere token".`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides server.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := app.New(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Printf("close: %v", err)
		}
	}()

	opts := server.Options{AllowedOrigins: cfg.Server.AllowedOrigins}
	authority, err := auth.New(cfg.Server.JWTSecret)
	switch {
	case errors.Is(err, auth.ErrNoSecret):
		log.Printf("WARNING: server.jwt_secret is empty, authentication is disabled")
	case err != nil:
		return err
	default:
		opts.Authority = authority
	}

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}
	if store, ok := a.Store.(*db.DB); ok {
		version, err := store.SchemaVersion(ctx)
		if err != nil {
			return err
		}
		log.Printf("Using sqlite store %s (schema version %d)", cfg.Database.Path, version)
	} else {
		log.Printf("Using %s store", a.Driver)
	}
	if err := server.New(a.Store, opts).ListenAndServe(ctx, addr); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
