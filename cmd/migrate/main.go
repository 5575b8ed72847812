package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"goposterior/adapters/postgres"
	"goposterior/domain/core"
	"goposterior/domain/run"
	"goposterior/internal/migration"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: migrate <database_url> [run_export_dir]")
	}

	databaseURL := os.Args[1]

	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	runner := migration.NewRunner()
	if err := runner.Run(ctx, db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Printf("Schema at version %s", runner.Version())

	if len(os.Args) < 3 {
		return
	}
	exportDir := os.Args[2]
	log.Printf("Importing run exports from %s", exportDir)

	repo := postgres.NewRunRepository(db)

	files, err := findRunFiles(exportDir)
	if err != nil {
		log.Fatalf("Failed to find run files: %v", err)
	}
	log.Printf("Found %d run files to import", len(files))

	imported := 0
	skipped := 0
	for _, file := range files {
		r, err := loadRunFromFile(file)
		if err != nil {
			log.Printf("Failed to load run from %s: %v", file, err)
			skipped++
			continue
		}

		if err := repo.Save(ctx, r); err != nil {
			log.Printf("Failed to save run %s: %v", r.ID, err)
			skipped++
			continue
		}

		imported++
		log.Printf("Imported run %s from %s", r.ID, filepath.Base(file))
	}

	log.Printf("Import complete: %d imported, %d skipped", imported, skipped)
}

func findRunFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() && strings.HasSuffix(path, ".json") {
			files = append(files, path)
		}

		return nil
	})

	return files, err
}

// loadRunFromFile reads one exported run. Exports without a usable ID get a
// deterministic one derived from the file path so re-imports stay idempotent.
func loadRunFromFile(filePath string) (*run.Run, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var r run.Run
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}

	if _, err := core.ParseRunID(r.ID.String()); err != nil {
		r.ID = core.RunID(uuid.NewSHA1(uuid.NameSpaceURL, []byte(filePath)).String())
	}
	if r.Fingerprint.IsEmpty() {
		r.Fingerprint = run.NewFingerprint(r.Request, r.Source.Source)
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	return &r, nil
}
