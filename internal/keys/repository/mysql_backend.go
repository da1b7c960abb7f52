package repository

import (
	"database/sql"

	"github.com/allisson/keystorage/internal/database"
)

// MySQLBackend implements StorageBackend for MySQL databases.
type MySQLBackend struct {
	*sqlBackend
}

// NewMySQLBackend creates a new MySQL storage backend.
func NewMySQLBackend(db *sql.DB, txManager database.TxManager) *MySQLBackend {
	return &MySQLBackend{
		sqlBackend: &sqlBackend{
			db:        db,
			txManager: txManager,
			q:         mysqlDialect,
		},
	}
}

var mysqlDialect = dialect{
	exists: `SELECT EXISTS (SELECT 1 FROM key_nodes WHERE path = ? OR path LIKE ?)`,
	isDir:  `SELECT EXISTS (SELECT 1 FROM key_nodes WHERE (path = ? AND is_dir) OR path LIKE ?)`,
	read:   `SELECT content FROM key_nodes WHERE path = ? AND NOT is_dir`,

	lockNode: `SELECT is_dir FROM key_nodes WHERE path = ? FOR UPDATE`,

	upsert: `INSERT INTO key_nodes (path, is_dir, content, created_at, updated_at)
			 VALUES (?, FALSE, ?, ?, ?)
			 ON DUPLICATE KEY UPDATE content = VALUES(content), updated_at = VALUES(updated_at)`,

	mkdir: `INSERT IGNORE INTO key_nodes (path, is_dir, content, created_at, updated_at)
			VALUES (?, TRUE, NULL, ?, ?)`,

	unlink:    `DELETE FROM key_nodes WHERE path = ? AND NOT is_dir`,
	deleteAll: `DELETE FROM key_nodes WHERE path = ? OR path LIKE ?`,

	copyTree: `INSERT INTO key_nodes (path, is_dir, content, created_at, updated_at)
			   SELECT CONCAT(?, SUBSTRING(path, CHAR_LENGTH(?) + 1)), is_dir, content, ?, ?
			   FROM key_nodes
			   WHERE path = ? OR path LIKE ?`,

	moveTree: `UPDATE key_nodes
			   SET path = CONCAT(?, SUBSTRING(path, CHAR_LENGTH(?) + 1)), updated_at = ?
			   WHERE path = ? OR path LIKE ?`,
}
