package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/akashabrah/StreetSense/internal/repository/sqlite"
	"github.com/akashabrah/StreetSense/internal/service/export"
)

func main() {
	_ = godotenv.Load()

	dbPath := flag.String("db", envOr("REMOTE_STORE_PATH", "data/streetsense.db"), "Remote store database path")
	down := flag.Bool("down", false, "Roll back the most recent migration")
	version := flag.Bool("version", false, "Print the schema version and exit")
	sessionID := flag.String("export", "", "Export the stored records of a session as CSV")
	out := flag.String("out", "", "Output file for -export (default: pedestrian-data-<session>.csv, - for stdout)")
	flag.Parse()

	if err := os.MkdirAll(filepath.Dir(*dbPath), 0755); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}

	db, err := sqlite.Open(*dbPath, nil)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	switch {
	case *version:
		v, dirty, err := db.MigrateVersion()
		if err != nil {
			log.Fatalf("Failed to read schema version: %v", err)
		}
		fmt.Printf("Schema version: %d (dirty: %t)\n", v, dirty)

	case *down:
		fmt.Printf("Rolling back %s\n", *dbPath)
		if err := db.MigrateDown(); err != nil {
			log.Fatalf("Failed to roll back: %v", err)
		}
		fmt.Println("✅ Rolled back one migration")

	case *sessionID != "":
		if err := db.MigrateUp(); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}
		n, err := exportSession(db, *sessionID, *out)
		if err != nil {
			log.Fatalf("Failed to export %s: %v", *sessionID, err)
		}
		fmt.Fprintf(os.Stderr, "✅ Exported %d records of %s\n", n, *sessionID)

	default:
		fmt.Printf("Migrating %s\n", *dbPath)
		if err := db.MigrateUp(); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}
		v, _, err := db.MigrateVersion()
		if err != nil {
			log.Fatalf("Failed to read schema version: %v", err)
		}
		fmt.Printf("✅ Schema at version %d\n", v)
	}
}

func exportSession(db *sqlite.DB, sessionID, out string) (int, error) {
	repo := sqlite.NewPedestrianRepository(db)
	records, err := repo.ListBySession(context.Background(), sessionID)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, export.ErrNoData
	}

	var w io.Writer = os.Stdout
	if out != "-" {
		if out == "" {
			out = export.Filename(sessionID)
		}
		f, err := os.Create(out)
		if err != nil {
			return 0, err
		}
		defer f.Close()
		w = f
	}

	if err := export.WriteCSV(w, records); err != nil {
		return 0, err
	}
	return len(records), nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
