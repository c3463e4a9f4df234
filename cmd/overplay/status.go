package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/overplay-app/overplay/internal/config"
	"github.com/overplay-app/overplay/internal/hotkey"
	"github.com/overplay-app/overplay/internal/player"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check config, player connection, and shortcut portal health",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Overplay Status ===")
	fmt.Println()

	allOK := true

	// Config file
	configPath := config.DefaultConfigPath()
	fmt.Printf("Config file: %s\n", configPath)
	if _, err := os.Stat(configPath); err == nil {
		fmt.Println("  Status: found")
	} else {
		fmt.Println("  Status: NOT FOUND (defaults in effect)")
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("  Load error: %v\n", err)
		allOK = false
	}
	fmt.Println()

	// Bindings
	if cfg != nil {
		bindings, errs := cfg.TableBindings()
		fmt.Printf("Bindings: %d valid\n", len(bindings))
		for _, err := range errs {
			fmt.Printf("  WARNING: %v\n", err)
			allOK = false
		}
		fmt.Println()
	}

	// Player connection (quick bus probe)
	fmt.Println("Media player:")
	pl, err := player.NewMprisPlayer(zap.NewNop(), playerName(cfg))
	if err != nil {
		fmt.Printf("  Session bus: unavailable (%v)\n", err)
		allOK = false
	} else {
		if name, err := pl.Detect(); err == nil {
			fmt.Printf("  Player: CONNECTED (%s)\n", name)
			if snap := pl.Current(); snap.Name != "" {
				fmt.Printf("  Now playing: %s - %s\n", snap.Artist, snap.Name)
			}
		} else {
			fmt.Println("  Player: not detected")
		}
		pl.Close()
	}
	fmt.Println()

	// Shortcut portal
	fmt.Println("Global shortcuts:")
	if src, err := hotkey.NewPortalSource(zap.NewNop()); err == nil {
		fmt.Println("  Portal: available")
		src.Close()
	} else {
		fmt.Println("  Portal: not available (key bindings disabled)")
	}
	fmt.Println()

	if allOK {
		fmt.Println("All checks passed.")
	} else {
		fmt.Println("Some checks failed. Run 'overplay setup' to configure.")
	}

	return nil
}

func playerName(cfg *config.Config) string {
	if cfg == nil {
		return ""
	}
	return cfg.Player
}
