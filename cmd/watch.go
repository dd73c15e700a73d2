package cmd

import (
	"context"
	"os"
	"os/signal"
	"sitemirror/internal/logger"
	"sitemirror/internal/repository"
	"sitemirror/internal/status"
	"sitemirror/internal/watcher"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the mirror for drift and serve status until stopped",
	RunE:  runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	defer logger.Sync()

	if err := os.MkdirAll(cfg.MirrorDir, 0755); err != nil {
		return err
	}

	w, err := watcher.New(repository.NewLedgerRepository())
	if err != nil {
		return err
	}

	if err := w.Watch(cfg.MirrorDir); err != nil {
		return err
	}

	srv := status.NewServer(cfg)
	srv.Start()

	logger.Log.Info("sitemirror watch started",
		zap.String("mirror", cfg.MirrorDir),
		zap.Int("port", cfg.StatusPort))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Log.Info("shutting down",
			zap.String("signal", sig.String()))
	case <-srv.StopCh():
		logger.Log.Info("stop requested via API")
	}

	w.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Stop(ctx)
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
