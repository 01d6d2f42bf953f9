package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/intel-cli/internal/ratelimit"
	"github.com/sells-group/intel-cli/internal/server"
	"github.com/sells-group/intel-cli/internal/store"
)

var servePort int

// housekeepingInterval is how often expired reports and idle rate-limit
// buckets are dropped.
const housekeepingInterval = 10 * time.Minute

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the report API server",
	Long:  "Starts the authenticated HTTP API for report generation, cached report lookup and credibility scoring.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		env, err := initReports(ctx, "serve")
		if err != nil {
			return err
		}
		defer env.Close()

		auth, err := server.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
		if err != nil {
			return err
		}
		limiter, err := ratelimit.NewPerUser(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)
		if err != nil {
			return err
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr: fmt.Sprintf(":%d", port),
			Handler: server.New(server.Config{
				Reports:        env.Reports,
				Scorer:         env.Scorer,
				Auth:           auth,
				Limiter:        limiter,
				AllowedOrigins: cfg.Server.AllowedOrigins,
			}),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go housekeeping(ctx, env.Store, limiter)

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

func housekeeping(ctx context.Context, st store.Store, limiter *ratelimit.PerUser) {
	ticker := time.NewTicker(housekeepingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := st.DeleteExpired(ctx)
			if err != nil {
				zap.L().Warn("delete expired reports failed", zap.Error(err))
			}
			users := limiter.Prune(time.Hour)
			zap.L().Debug("housekeeping",
				zap.Int("expired_reports", n),
				zap.Int("pruned_users", users),
			)
		}
	}
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "HTTP server port (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
