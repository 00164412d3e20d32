// ABOUTME: Entry point for the PixelDeck display plugin hub.
// ABOUTME: Wires store, admin API, and bundled plugins with CLI commands.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/pixeldeck/pixeldeck/internal/admin"
	"github.com/pixeldeck/pixeldeck/internal/seed"
	"github.com/pixeldeck/pixeldeck/internal/store"
	_ "github.com/pixeldeck/pixeldeck/plugins/clock"   // Register Clock plugin
	_ "github.com/pixeldeck/pixeldeck/plugins/gallery" // Register Gallery plugin
	_ "github.com/pixeldeck/pixeldeck/plugins/news"    // Register News plugin
)

var (
	port       string
	dbPath     string
	uploadsDir string
)

func main() {
	godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "pixeldeck",
		Short: "PixelDeck - display plugin hub with schema-driven configuration",
		Long: `PixelDeck manages display plugins for an LED matrix deck.

Each plugin ships a configuration schema; the hub renders the config form,
persists typed configuration, and drives install/update/uninstall lifecycles.

Quick Start:
  pixeldeck seed          # Install bundled plugins with sample configs
  pixeldeck serve         # Start the hub on port 8480
  pixeldeck reset         # Wipe and reseed the database`,
	}

	defaultDBPath := getDefaultDBPath()

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the PixelDeck hub server on the specified port.

The server provides:
  • Plugin management API under /plugins
  • Config form UI at http://localhost:PORT/admin/plugins/{plugin}/config
  • Health check at http://localhost:PORT/healthz

Environment Variables:
  PIXELDECK_PORT    Server port (default: 8480)
  OPENAI_API_KEY    Enable AI-generated sample configs for seeding`,
		RunE: runServe,
	}
	serveCmd.Flags().StringVarP(&port, "port", "p", getEnv("PIXELDECK_PORT", "8480"), "Port to listen on")
	serveCmd.Flags().StringVarP(&dbPath, "db", "d", defaultDBPath, "Database path")
	serveCmd.Flags().StringVar(&uploadsDir, "uploads", defaultUploadsDir(), "Asset upload directory")

	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Install bundled plugins with sample configurations",
		Long: `Install every bundled plugin and save a sample configuration for each.

Set OPENAI_API_KEY to generate realistic configuration values with AI.
Falls back to static samples if no API key is provided.`,
		RunE: runSeed,
	}
	seedCmd.Flags().StringVarP(&dbPath, "db", "d", defaultDBPath, "Database path")

	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset the database (wipe and reseed)",
		Long: `Delete the database file, create a fresh one, and reseed it.

Warning: This permanently deletes all plugin configuration!`,
		RunE: runReset,
	}
	resetCmd.Flags().StringVarP(&dbPath, "db", "d", defaultDBPath, "Database path")

	rootCmd.AddCommand(serveCmd, seedCmd, resetCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// validateAndCleanDBPath rejects empty, root-like, and traversal paths.
func validateAndCleanDBPath(path string) (string, error) {
	cleanPath := strings.TrimSpace(path)
	cleanPath = filepath.Clean(cleanPath)

	if cleanPath == "" || cleanPath == "." || cleanPath == "/" {
		return "", fmt.Errorf("database path cannot be empty, '.', or '/'")
	}
	if runtime.GOOS == "windows" && len(cleanPath) == 2 && cleanPath[1] == ':' {
		return "", fmt.Errorf("database path cannot be a bare drive letter")
	}
	if strings.Contains(cleanPath, "..") {
		return "", fmt.Errorf("database path cannot contain '..'")
	}
	return cleanPath, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	var err error
	dbPath, err = validateAndCleanDBPath(dbPath)
	if err != nil {
		return err
	}

	srv, err := newServer(dbPath, uploadsDir)
	if err != nil {
		return err
	}

	addr := ":" + port
	log.Printf("PixelDeck listening on %s", addr)
	log.Printf("Database: %s", dbPath)
	return http.ListenAndServe(addr, srv)
}

func newServer(dbPath, uploadsDir string) (http.Handler, error) {
	s, err := store.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"ok": true})
	})
	r.Get("/favicon.ico", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	admin.NewHandlers(s, uploadsDir).RegisterRoutes(r)

	return r, nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	var err error
	dbPath, err = validateAndCleanDBPath(dbPath)
	if err != nil {
		return err
	}

	s, err := store.New(dbPath)
	if err != nil {
		return err
	}
	defer s.Close()

	return seed.NewGenerator(s).Run(context.Background())
}

func runReset(cmd *cobra.Command, args []string) error {
	var err error
	dbPath, err = validateAndCleanDBPath(dbPath)
	if err != nil {
		return err
	}

	if err := os.Remove(dbPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove existing database: %w", err)
	}

	s, err := store.New(dbPath)
	if err != nil {
		return err
	}
	defer s.Close()

	return seed.NewGenerator(s).Run(context.Background())
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getDefaultDBPath follows the XDG Base Directory spec.
// Priority: PIXELDECK_DB_PATH env var > ./pixeldeck.db > XDG data dir.
func getDefaultDBPath() string {
	if envPath := os.Getenv("PIXELDECK_DB_PATH"); envPath != "" {
		envPath = filepath.Clean(strings.TrimSpace(envPath))
		if envPath != "" && envPath != "." {
			return envPath
		}
		log.Printf("Warning: PIXELDECK_DB_PATH is invalid, using default path")
	}

	cwdPath := "./pixeldeck.db"
	if _, err := os.Stat(cwdPath); err == nil {
		return cwdPath
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil || homeDir == "" || homeDir == "/" {
			log.Printf("Warning: could not determine home directory: %v, using %s", err, cwdPath)
			return cwdPath
		}
		if runtime.GOOS == "windows" {
			dataHome = os.Getenv("LOCALAPPDATA")
			if dataHome == "" {
				dataHome = filepath.Join(homeDir, "AppData", "Local")
			}
		} else {
			dataHome = filepath.Join(homeDir, ".local", "share")
		}
	}

	dataDir := filepath.Join(dataHome, "pixeldeck")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Printf("Warning: could not create data directory %s: %v, using %s", dataDir, err, cwdPath)
		return cwdPath
	}
	return filepath.Join(dataDir, "pixeldeck.db")
}

func defaultUploadsDir() string {
	dir := filepath.Dir(getDefaultDBPath())
	return filepath.Join(dir, "uploads")
}
