package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ontostock/ontostock-engine/pkg/handlers"
	"github.com/ontostock/ontostock-engine/pkg/middleware"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe() error {
	a, err := bootstrap(true)
	if err != nil {
		return err
	}
	defer a.close()

	mux := http.NewServeMux()
	handlers.NewHealthHandler(a.cfg, a.logger).RegisterRoutes(mux)
	handlers.NewQuestionHandler(a.question, a.logger).RegisterRoutes(mux)
	handlers.NewOntologyHandler(a.graph, a.logger).RegisterRoutes(mux)
	handlers.NewHistoryHandler(a.history, a.logger).RegisterRoutes(mux)

	handler := middleware.RequestID(middleware.RequestLogger(a.logger)(mux))

	server := &http.Server{
		Addr:              a.cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("starting ontostock-engine",
			zap.String("addr", server.Addr),
			zap.String("version", a.cfg.Version),
			zap.String("env", a.cfg.Env))
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case sig := <-stop:
		a.logger.Info("shutting down", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			return err
		}
	}
	return nil
}
