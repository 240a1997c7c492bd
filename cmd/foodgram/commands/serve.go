package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/foodgram/internal/auth"
	"github.com/mmynk/foodgram/internal/config"
	"github.com/mmynk/foodgram/internal/media"
	"github.com/mmynk/foodgram/internal/service"
	"github.com/mmynk/foodgram/internal/storage"
)

const tokenPurgeInterval = time.Hour

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runServe(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context) error {
	cfg, store, logger, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	mediaStore, mediaHandler, err := newMediaStorage(ctx, cfg)
	if err != nil {
		return err
	}
	logger.Info("Media storage initialized", "backend", mediaStore.Name())

	go purgeTokens(ctx, store, logger)

	authenticator := auth.NewPasswordAuthenticator(store)
	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenDuration)

	api := service.New(store, authenticator, jwtManager, mediaStore, service.Options{
		BaseURL:           cfg.Server.BaseURL,
		DefaultPageSize:   cfg.API.DefaultPageSize,
		MaxPageSize:       cfg.API.MaxPageSize,
		CORSOrigins:       cfg.Security.CORSOrigins,
		RateLimitReqs:     cfg.Security.RateLimitReqs,
		RateLimitWindow:   cfg.Security.RateLimitWindow,
		RateLimitDisabled: cfg.Security.RateLimitDisabled,
		MediaPrefix:       cfg.Media.Local.URLPrefix,
		MediaHandler:      mediaHandler,
	}, logger)

	// h2c lets HTTP/2 clients talk to the server without TLS.
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      h2c.NewHandler(api.Routes(), &http2.Server{}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", "address", srv.Addr, "base_url", cfg.Server.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down", "timeout", cfg.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}

// newMediaStorage builds the configured image backend. The returned
// handler is nil unless files are served by this process.
func newMediaStorage(ctx context.Context, cfg *config.Config) (media.Storage, http.Handler, error) {
	switch cfg.Media.Backend {
	case "s3":
		s3cfg := cfg.Media.S3
		store, err := media.NewS3Storage(ctx, media.S3Options{
			Bucket:       s3cfg.Bucket,
			Region:       s3cfg.Region,
			Endpoint:     s3cfg.Endpoint,
			AccessKey:    s3cfg.AccessKey,
			SecretKey:    s3cfg.SecretKey,
			PublicURL:    s3cfg.PublicURL,
			UsePathStyle: s3cfg.UsePathStyle,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to configure S3 media storage: %w", err)
		}
		return store, nil, nil
	default:
		local := cfg.Media.Local
		publicURL := strings.TrimRight(cfg.Server.BaseURL, "/") + "/" + strings.Trim(local.URLPrefix, "/") + "/"
		store, err := media.NewLocalStorage(local.Root, publicURL)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Handler(), nil
	}
}

// purgeTokens drops expired revocation records at startup and then hourly.
func purgeTokens(ctx context.Context, tokens storage.TokenStore, logger *slog.Logger) {
	ticker := time.NewTicker(tokenPurgeInterval)
	defer ticker.Stop()

	for {
		n, err := tokens.PurgeExpiredTokens(ctx, time.Now().Unix())
		if err != nil && ctx.Err() == nil {
			logger.Warn("Failed to purge revoked tokens", "error", err)
		} else if n > 0 {
			logger.Info("Purged revoked tokens", "count", n)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
