package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/overplay-app/overplay/internal/config"
	"github.com/overplay-app/overplay/internal/controller"
	"github.com/overplay-app/overplay/internal/hotkey"
	"github.com/overplay-app/overplay/internal/overlay"
	"github.com/overplay-app/overplay/internal/player"
)

var rootCmd = &cobra.Command{
	Use:   "overplay",
	Short: "On-screen display companion for your media player",
	RunE:  runDaemon,
}

func main() {
	rootCmd.AddCommand(setupCmd, statusCmd, previewCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runDaemon(cmd *cobra.Command, args []string) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	pl, err := player.NewMprisPlayer(logger, cfg.Player)
	if err != nil {
		return err
	}
	defer pl.Close()

	window := overlay.NewWindow(logger)

	ctrl, err := controller.New(logger, cfg, pl, window)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := pl.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	// Global shortcuts are best effort: not every desktop exposes the
	// portal, and the daemon is useful on events alone.
	if hotkeys, err := hotkey.NewPortalSource(logger); err != nil {
		logger.Warn("Global shortcuts unavailable", zap.Error(err))
	} else {
		defer hotkeys.Close()
		g.Go(func() error {
			if err := hotkeys.Start(ctx, ctrl.Chords()); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("Shortcut source stopped", zap.Error(err))
			}
			return nil
		})
		g.Go(func() error {
			for chord := range hotkeys.Chords() {
				ctrl.HandleChord(chord)
			}
			return nil
		})
	}

	g.Go(func() error {
		err := config.Watch(ctx, logger, config.DefaultConfigPath(), ctrl.ApplyConfig)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("Config watcher stopped", zap.Error(err))
		}
		return nil
	})

	// Tear the window down when anything else asks for shutdown.
	g.Go(func() error {
		<-ctx.Done()
		window.Close()
		return nil
	})

	logger.Info("Overlay daemon running",
		zap.String("config", config.DefaultConfigPath()))

	// The window loop owns the main goroutine until shutdown.
	runErr := window.Run()
	cancel()
	if err := g.Wait(); err != nil {
		return err
	}
	return runErr
}
