package db

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nshaw/breakdown/pkg/models"
)

// EnableAutoSnapshot sets up a hook that automatically exports a snapshot
// to the given path after every successful write operation.
func (db *DB) EnableAutoSnapshot(path string) {
	db.SetOnChange(func(ctx context.Context) {
		// Hooks are best-effort; a failed export must not fail the write.
		_ = db.ExportSnapshot(ctx, path)
	})
}

// ExportSnapshot writes every plan, with its tasks and dependency positions,
// as one JSON line per plan. The file is written atomically via a temp file.
func (db *DB) ExportSnapshot(ctx context.Context, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	tempFile, err := os.CreateTemp(dir, "snapshot-*.jsonl")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if tempFile != nil {
			tempFile.Close()
			os.Remove(tempFile.Name())
		}
	}()

	summaries, err := db.ListPlans(ctx)
	if err != nil {
		return err
	}

	// ListPlans is newest-first; export oldest-first so import preserves order.
	for i := len(summaries) - 1; i >= 0; i-- {
		plan, err := db.GetPlan(ctx, summaries[i].ID)
		if err != nil {
			return err
		}
		if plan == nil {
			continue
		}
		line, err := json.Marshal(plan)
		if err != nil {
			return fmt.Errorf("failed to marshal plan %s: %w", plan.ID, err)
		}
		if _, err := tempFile.Write(append(line, '\n')); err != nil {
			return fmt.Errorf("failed to write snapshot line: %w", err)
		}
	}

	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	filename := tempFile.Name()
	tempFile = nil // Prevent defer from removing it

	if err := os.Rename(filename, path); err != nil {
		os.Remove(filename)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// ImportSnapshot reads a JSONL snapshot and recreates any plan whose ID is
// not already present. Plans keep their snapshot IDs so repeated imports
// are idempotent.
func (db *DB) ImportSnapshot(ctx context.Context, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open snapshot file: %w", err)
	}
	defer file.Close()

	// Suppress auto-snapshot while restoring from one.
	db.DisableOnChange()
	defer db.EnableOnChange()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var plan models.TaskPlan
		if err := json.Unmarshal(line, &plan); err != nil {
			return fmt.Errorf("failed to parse snapshot line %d: %w", lineNo, err)
		}

		existing, err := db.GetPlan(ctx, plan.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}

		if err := db.CreatePlan(ctx, &plan); err != nil {
			return fmt.Errorf("failed to import plan %s: %w", plan.ID, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read snapshot file: %w", err)
	}

	return nil
}
