package repository

import (
	"database/sql"

	"github.com/allisson/keystorage/internal/database"
)

// PostgreSQLBackend implements StorageBackend for PostgreSQL databases.
type PostgreSQLBackend struct {
	*sqlBackend
}

// NewPostgreSQLBackend creates a new PostgreSQL storage backend.
func NewPostgreSQLBackend(db *sql.DB, txManager database.TxManager) *PostgreSQLBackend {
	return &PostgreSQLBackend{
		sqlBackend: &sqlBackend{
			db:        db,
			txManager: txManager,
			q:         postgresqlDialect,
		},
	}
}

var postgresqlDialect = dialect{
	exists: `SELECT EXISTS (SELECT 1 FROM key_nodes WHERE path = $1 OR path LIKE $2)`,
	isDir:  `SELECT EXISTS (SELECT 1 FROM key_nodes WHERE (path = $1 AND is_dir) OR path LIKE $2)`,
	read:   `SELECT content FROM key_nodes WHERE path = $1 AND NOT is_dir`,

	lockNode: `SELECT is_dir FROM key_nodes WHERE path = $1 FOR UPDATE`,

	upsert: `INSERT INTO key_nodes (path, is_dir, content, created_at, updated_at)
			 VALUES ($1, FALSE, $2, $3, $4)
			 ON CONFLICT (path) DO UPDATE SET content = EXCLUDED.content, updated_at = EXCLUDED.updated_at`,

	mkdir: `INSERT INTO key_nodes (path, is_dir, content, created_at, updated_at)
			VALUES ($1, TRUE, NULL, $2, $3)
			ON CONFLICT (path) DO NOTHING`,

	unlink:    `DELETE FROM key_nodes WHERE path = $1 AND NOT is_dir`,
	deleteAll: `DELETE FROM key_nodes WHERE path = $1 OR path LIKE $2`,

	copyTree: `INSERT INTO key_nodes (path, is_dir, content, created_at, updated_at)
			   SELECT $1::text || substr(path, char_length($2::text) + 1), is_dir, content,
					  $3::timestamptz, $4::timestamptz
			   FROM key_nodes
			   WHERE path = $5 OR path LIKE $6`,

	moveTree: `UPDATE key_nodes
			   SET path = $1::text || substr(path, char_length($2::text) + 1), updated_at = $3
			   WHERE path = $4 OR path LIKE $5`,
}
