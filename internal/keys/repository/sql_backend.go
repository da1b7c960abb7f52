// Package repository provides StorageBackend implementations on top of SQL
// databases. The virtual filesystem is stored in a single key_nodes table
// holding one row per file or explicitly created directory.
package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/allisson/keystorage/internal/database"
	apperrors "github.com/allisson/keystorage/internal/errors"
)

// dialect holds the statements that differ between database engines.
// Arguments are bound positionally in the order noted next to each
// statement; a value used twice is bound twice.
type dialect struct {
	exists    string // path, pattern
	isDir     string // path, pattern
	read      string // path
	lockNode  string // path
	upsert    string // path, content, now, now
	mkdir     string // path, now, now
	unlink    string // path
	deleteAll string // path, pattern
	copyTree  string // target, source, now, now, source, pattern
	moveTree  string // target, source, now, source, pattern
}

// sqlBackend implements the StorageBackend contract for a dialect.
type sqlBackend struct {
	db        *sql.DB
	txManager database.TxManager
	q         dialect
}

// FileExists reports whether path is a file, an explicit directory or has nodes below it.
func (s *sqlBackend) FileExists(ctx context.Context, path string) (bool, error) {
	path = cleanPath(path)
	if path == "/" {
		return true, nil
	}

	var exists bool
	querier := database.GetTx(ctx, s.db)
	if err := querier.QueryRowContext(ctx, s.q.exists, path, subtreePattern(path)).Scan(&exists); err != nil {
		return false, apperrors.Wrapf(err, "failed to check existence of %s", path)
	}
	return exists, nil
}

// IsDir reports whether path is an explicit directory or has nodes below it.
func (s *sqlBackend) IsDir(ctx context.Context, path string) (bool, error) {
	path = cleanPath(path)
	if path == "/" {
		return true, nil
	}

	var isDir bool
	querier := database.GetTx(ctx, s.db)
	if err := querier.QueryRowContext(ctx, s.q.isDir, path, subtreePattern(path)).Scan(&isDir); err != nil {
		return false, apperrors.Wrapf(err, "failed to check directory %s", path)
	}
	return isDir, nil
}

// ReadFile returns the content of the file at path.
func (s *sqlBackend) ReadFile(ctx context.Context, path string) ([]byte, error) {
	path = cleanPath(path)

	var content []byte
	querier := database.GetTx(ctx, s.db)
	if err := querier.QueryRowContext(ctx, s.q.read, path).Scan(&content); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.Wrapf(apperrors.ErrNotFound, "%s", path)
		}
		return nil, apperrors.Wrapf(err, "failed to read %s", path)
	}
	return content, nil
}

// WriteFile creates or replaces the file at path. Writing over a directory is a conflict.
func (s *sqlBackend) WriteFile(ctx context.Context, path string, data []byte) (int, error) {
	path = cleanPath(path)
	if path == "/" {
		return 0, apperrors.Wrap(apperrors.ErrInvalidInput, "cannot write to the root directory")
	}

	now := time.Now().UTC()
	err := s.txManager.WithTx(ctx, func(ctx context.Context) error {
		querier := database.GetTx(ctx, s.db)

		var isDir bool
		err := querier.QueryRowContext(ctx, s.q.lockNode, path).Scan(&isDir)
		switch {
		case err == sql.ErrNoRows:
		case err != nil:
			return apperrors.Wrapf(err, "failed to lock %s", path)
		case isDir:
			return apperrors.Wrapf(apperrors.ErrConflict, "%s is a directory", path)
		}

		if _, err := querier.ExecContext(ctx, s.q.upsert, path, data, now, now); err != nil {
			return apperrors.Wrapf(err, "failed to write %s", path)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(data), nil
}

// Unlink removes the file at path.
func (s *sqlBackend) Unlink(ctx context.Context, path string) error {
	path = cleanPath(path)

	querier := database.GetTx(ctx, s.db)
	result, err := querier.ExecContext(ctx, s.q.unlink, path)
	if err != nil {
		return apperrors.Wrapf(err, "failed to unlink %s", path)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrapf(err, "failed to unlink %s", path)
	}
	if rows == 0 {
		return apperrors.Wrapf(apperrors.ErrNotFound, "%s", path)
	}
	return nil
}

// DeleteAll removes path and every node below it.
func (s *sqlBackend) DeleteAll(ctx context.Context, path string) error {
	path = cleanPath(path)
	if path == "/" {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "cannot delete the root directory")
	}

	querier := database.GetTx(ctx, s.db)
	if _, err := querier.ExecContext(ctx, s.q.deleteAll, path, subtreePattern(path)); err != nil {
		return apperrors.Wrapf(err, "failed to delete %s", path)
	}
	return nil
}

// Mkdir creates a directory row for path.
func (s *sqlBackend) Mkdir(ctx context.Context, path string) error {
	path = cleanPath(path)

	exists, err := s.FileExists(ctx, path)
	if err != nil {
		return err
	}
	if exists {
		return apperrors.Wrapf(apperrors.ErrConflict, "%s already exists", path)
	}

	now := time.Now().UTC()
	querier := database.GetTx(ctx, s.db)
	result, err := querier.ExecContext(ctx, s.q.mkdir, path, now, now)
	if err != nil {
		return apperrors.Wrapf(err, "failed to create directory %s", path)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrapf(err, "failed to create directory %s", path)
	}
	if rows == 0 {
		return apperrors.Wrapf(apperrors.ErrConflict, "%s already exists", path)
	}
	return nil
}

// Rename moves the node or subtree at source to target in one transaction,
// replacing whatever target held before.
func (s *sqlBackend) Rename(ctx context.Context, source, target string) error {
	return s.transfer(ctx, "rename", source, target, s.q.moveTree, func(source, target string, now time.Time) []any {
		return []any{target, source, now, source, subtreePattern(source)}
	})
}

// Copy duplicates the node or subtree at source to target in one transaction,
// replacing whatever target held before.
func (s *sqlBackend) Copy(ctx context.Context, source, target string) error {
	return s.transfer(ctx, "copy", source, target, s.q.copyTree, func(source, target string, now time.Time) []any {
		return []any{target, source, now, now, source, subtreePattern(source)}
	})
}

func (s *sqlBackend) transfer(
	ctx context.Context,
	op, source, target, statement string,
	args func(source, target string, now time.Time) []any,
) error {
	source, target = cleanPath(source), cleanPath(target)
	if source == "/" || target == "/" {
		return apperrors.Wrapf(apperrors.ErrInvalidInput, "cannot %s from or to the root directory", op)
	}

	return s.txManager.WithTx(ctx, func(ctx context.Context) error {
		exists, err := s.FileExists(ctx, source)
		if err != nil {
			return err
		}
		if !exists {
			return apperrors.Wrapf(apperrors.ErrNotFound, "%s", source)
		}
		if source == target {
			return nil
		}

		if err := s.DeleteAll(ctx, target); err != nil {
			return err
		}

		querier := database.GetTx(ctx, s.db)
		_, err = querier.ExecContext(ctx, statement, args(source, target, time.Now().UTC())...)
		if err != nil {
			return apperrors.Wrapf(err, "failed to %s %s to %s", op, source, target)
		}
		return nil
	})
}

// cleanPath maps "/a/b/", "a/b" and "/a/b" to "/a/b".
func cleanPath(path string) string {
	return "/" + strings.Trim(path, "/")
}

// subtreePattern returns the LIKE pattern matching every node strictly below path.
func subtreePattern(path string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(path) + "/%"
}
