package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"photo-stream/internal/database"
)

const (
	// Default timeout for database operations
	defaultTimeout = 30 * time.Second
	// Default database directory path
	defaultDatabaseDir = "/database"
	// Cap on concurrent insert workers. SQLite has a single writer, so
	// past this point extra workers only queue on the write lock.
	maxImportWorkers = 8
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	// Create a context that cancels on interrupt signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted, shutting down...")
		cancel()
	}()

	// Get database directory from env or default
	databaseDir := os.Getenv("DATABASE_DIR")
	if databaseDir == "" {
		databaseDir = defaultDatabaseDir
	}
	dbPath := filepath.Join(databaseDir, "photos.db")

	db, err := database.New(ctx, dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to open database: %v\n", err)
		fmt.Fprintf(os.Stderr, "Make sure DATABASE_DIR is set correctly (current: %s)\n", databaseDir)
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
		}
	}()

	switch command {
	case "import":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Error: import requires a manifest file")
			printUsage()
			os.Exit(1)
		}
		if !runImport(ctx, db, os.Args[2]) {
			os.Exit(1)
		}
	case "stats":
		if !showStats(ctx, db) {
			os.Exit(1)
		}
	default:
		// Sanitize command input using allowlist before echoing it back
		sanitized := sanitizeCommand(command)
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", sanitized) //nolint:gosec // G705 - input is sanitized via allowlist in sanitizeCommand; only [a-zA-Z0-9_-] characters pass through
		printUsage()
		os.Exit(1)
	}
}

// sanitizeCommand returns a safe representation of a command string for display.
// It uses an allowlist approach, replacing any character that is not alphanumeric,
// a hyphen, or an underscore with '_'.
func sanitizeCommand(cmd string) string {
	var b strings.Builder
	b.Grow(len(cmd))
	for _, r := range cmd {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

func printUsage() {
	fmt.Println("Photo Stream Seed Tool")
	fmt.Println("")
	fmt.Println("Usage: photoseed <command> [args]")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  import <manifest>  - Import photos from a JSON Lines manifest")
	fmt.Println("  stats              - Show collection statistics")
	fmt.Println("")
	fmt.Println("Environment:")
	fmt.Printf("  DATABASE_DIR - Path to database directory (default: %s)\n", defaultDatabaseDir)
	fmt.Println("  SEED_WORKERS - Override the number of import workers")
}

func runImport(ctx context.Context, db *database.Database, manifestPath string) bool {
	f, err := os.Open(manifestPath) //nolint:gosec // G304 - path is an operator-supplied CLI argument
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to open manifest: %v\n", err)
		return false
	}
	defer f.Close()

	entries, err := readManifest(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return false
	}
	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "Error: Manifest contains no entries")
		return false
	}

	start := time.Now()
	summary := importEntries(ctx, db, entries)

	fmt.Printf("Imported %d photos across %d projects in %v\n",
		summary.Inserted, summary.Projects, time.Since(start).Round(time.Millisecond))
	if summary.Failed > 0 {
		fmt.Fprintf(os.Stderr, "Warning: %d entries failed:\n", summary.Failed)
		for _, e := range summary.Errors {
			fmt.Fprintf(os.Stderr, "  %v\n", e)
		}
		return false
	}
	return true
}

func showStats(ctx context.Context, db *database.Database) bool {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	stats, err := db.CalculateStats(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to read stats: %v\n", err)
		return false
	}

	fmt.Printf("Photos:            %d\n", stats.TotalPhotos)
	fmt.Printf("Projects:          %d (%d archived)\n", stats.TotalProjects+stats.ArchivedProjects, stats.ArchivedProjects)
	fmt.Printf("Flagged photos:    %d\n", stats.FlaggedPhotos)
	fmt.Printf("Distinct tags:     %d\n", stats.TotalTags)
	return true
}
