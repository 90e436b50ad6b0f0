package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// SeedFile loads a JSON object from path and writes each top-level
// collection into store, replacing what was there
func SeedFile(ctx context.Context, store Store, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	var tree map[string]any
	if err := json.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("parse seed file: %w", err)
	}
	return Seed(ctx, store, tree)
}

// Seed writes each top-level collection of tree into store
func Seed(ctx context.Context, store Store, tree map[string]any) error {
	collections := make([]string, 0, len(tree))
	for name := range tree {
		collections = append(collections, name)
	}
	sort.Strings(collections)

	for _, name := range collections {
		if err := store.Write(ctx, name, tree[name]); err != nil {
			return fmt.Errorf("seed %s: %w", name, err)
		}
	}
	return nil
}
