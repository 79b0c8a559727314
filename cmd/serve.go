package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/inkstudio/inkstudio/internal/credentials"
	"github.com/inkstudio/inkstudio/internal/gemini"
	"github.com/inkstudio/inkstudio/internal/handlers"
	"github.com/inkstudio/inkstudio/internal/providers"
	"github.com/spf13/cobra"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the browser studio",
		Long: `Starts the Inkstudio web interface and JSON API.

Each browser gets its own workspace and design library, identified by a
profile cookie. An API key must be available in GEMINI_API_KEY or API_KEY.`,
		Example: `  # Start server on default port 8888
  inkstudio serve

  # Start server on custom port with a sqlite library
  INKSTUDIO_STORAGE_DRIVER=sqlite INKSTUDIO_STORAGE_PATH=inkstudio.db inkstudio serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			if port != "" {
				cfg.Server.Port = port
			}

			a, err := openApp(opts, true)
			if err != nil {
				return err
			}
			defer a.Close()

			handler := handlers.New(handlers.Options{
				NewProvider: func(keys credentials.Source) providers.Provider {
					return gemini.New(cfg.Gemini, keys)
				},
				Credentials:        a.keys,
				KV:                 a.kv,
				PollInterval:       cfg.Video.PollInterval,
				MessageInterval:    cfg.Video.MessageInterval,
				StaticDir:          cfg.Server.StaticDir,
				CORSOrigins:        cfg.Server.CORSOrigins,
				MaxUploadBytes:     cfg.Server.MaxUploadBytes,
				MaxProfiles:        cfg.Server.MaxProfiles,
				ProfileIdleTimeout: cfg.Server.ProfileIdleTimeout,
			})
			defer handler.Close()

			addr := ":" + cfg.Server.Port
			server := &http.Server{
				Addr:              addr,
				Handler:           handler.Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Inkstudio available", "addr", addr, "url", "http://localhost"+addr, "storage", cfg.Storage.Driver)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on (default from config, 8888)")

	return cmd
}
