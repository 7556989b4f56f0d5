package simulate

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/mmr/pkg/logger"
)

// SetupLogging logs to stdout and, when logFile is set, to that file too.
func SetupLogging(logFile string, verbose bool) error {
	var w io.Writer = os.Stdout
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, filePermission)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		w = io.MultiWriter(os.Stdout, file)
	}
	if err := logger.Init(logger.WithWriter(w)); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		return logger.SetLevelString("debug")
	}
	return nil
}

// ShowHelp prints usage information.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`MMR Match Simulator
===================

Submits synthetic matches between players of known hidden skill to a running
rating service, then checks the leaderboard and per-player ranks.

Usage:
  go run ./cmd/simulate [options]

Options:
  -url string        Base URL of the service (default "http://localhost:9080")
  -players int       Size of the player pool (default 200)
  -matches int       Number of matches to submit (default 2000)
  -team-size int     Players per team (default 5)
  -top int           Leaderboard entries to fetch (default 50)
  -workers int       Concurrent submitters (default CPU cores * 2)
  -timeout duration  HTTP request timeout (default 30s)
  -seed uint         Seed for players and matches (default 1)
  -output string     Write the submitted matches to this file
  -log string        Also write logs to this file
  -verbose           Enable verbose logging
  -help              Show this help message

Examples:
  go run ./cmd/simulate -matches 10000 -team-size 3
  go run ./cmd/simulate -url http://localhost:8080 -output matches.json
`)
}
