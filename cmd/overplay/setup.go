package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/overplay-app/overplay/internal/config"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup: write the overlay config file",
	RunE:  runSetup,
}

func runSetup(cmd *cobra.Command, args []string) error {
	reader := bufio.NewReader(os.Stdin)
	fmt.Println("=== Overplay Setup ===")
	fmt.Println()

	// Load existing config as defaults
	existing, err := config.Load()
	if err != nil {
		fmt.Printf("Existing config unreadable, starting fresh: %v\n", err)
		existing = config.Default()
	}

	cfg := existing

	fmt.Println("-- Player --")
	cfg.Player = prompt(reader, "Player name (empty for first detected)", existing.Player)
	fmt.Println()

	fmt.Println("-- Appearance --")
	cfg.Style.Mode = promptChoice(reader, "Overlay style", existing.Style.Mode, "basic", "glass")
	cfg.Style.Anchor = promptChoice(reader, "Screen anchor", existing.Style.Anchor,
		"near-clock", "upper-left", "upper-right", "lower-left", "lower-right")
	fmt.Println()

	fmt.Println("-- Timing --")
	cfg.Timing.VisibleMs = promptInt(reader, "Visible duration (ms)", existing.Timing.VisibleMs)
	cfg.Timing.FadeMs = promptInt(reader, "Fade duration (ms)", existing.Timing.FadeMs)
	fmt.Println()

	if err := config.WriteConfigFile(cfg); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	fmt.Printf("Config written to %s\n", config.DefaultConfigPath())
	fmt.Println("Setup complete! Edit the file directly for templates and bindings.")
	return nil
}

// prompt asks for a value with an optional default.
func prompt(reader *bufio.Reader, label, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("  %s [%s]: ", label, defaultVal)
	} else {
		fmt.Printf("  %s: ", label)
	}
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return defaultVal
	}
	return line
}

// promptChoice asks for one of a fixed set, re-asking on anything else.
func promptChoice(reader *bufio.Reader, label, defaultVal string, choices ...string) string {
	for {
		value := prompt(reader, fmt.Sprintf("%s (%s)", label, strings.Join(choices, "/")), defaultVal)
		for _, c := range choices {
			if value == c {
				return value
			}
		}
		fmt.Printf("  Please pick one of: %s\n", strings.Join(choices, ", "))
	}
}

// promptInt asks for a positive integer, keeping the default on bad input.
func promptInt(reader *bufio.Reader, label string, defaultVal int) int {
	value := prompt(reader, label, strconv.Itoa(defaultVal))
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		fmt.Printf("  Keeping %d\n", defaultVal)
		return defaultVal
	}
	return n
}
