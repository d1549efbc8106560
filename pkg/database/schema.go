package database

import (
	"context"
	"fmt"
	"io/fs"
	"sort"

	"syndicate/stevedore/pkg/database/sql"
	"syndicate/stevedore/pkg/logging"
)

// ApplySchema executes the embedded schema files, then the seed files, in
// lexical order. Statements are idempotent (IF NOT EXISTS / ON CONFLICT), so
// this is safe to run on every startup.
func ApplySchema(ctx context.Context, db PostgresConn, logger logging.Logger) error {
	for _, dir := range []string{"schema", "seeds"} {
		names, err := listSQLFiles(dir)
		if err != nil {
			return err
		}
		for _, name := range names {
			content, err := sql.Content.ReadFile(name)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", name, err)
			}
			if _, err := db.ExecContext(ctx, string(content)); err != nil {
				return fmt.Errorf("failed to apply %s: %w", name, err)
			}
			logger.WithField("file", name).Debug("Applied SQL file")
		}
	}
	return nil
}

func listSQLFiles(dir string) ([]string, error) {
	entries, err := fs.ReadDir(sql.Content, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list embedded %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, dir+"/"+e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
