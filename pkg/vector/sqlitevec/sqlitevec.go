// Package sqlitevec provides a SQLite-backed corpus index using sqlite-vec.
// It persists vectors and metadata in one database file and pushes the KNN
// scan into the vec0 virtual table, behind the same vector.Index interface
// as the flat scan.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/probitylab/screener/pkg/vector"
)

// Index implements vector.Index on SQLite with the sqlite-vec extension.
type Index struct {
	db         *sql.DB
	dimensions int
	logger     *zap.Logger

	mu   sync.RWMutex
	size int
}

// Config holds configuration for the sqlite-vec index.
type Config struct {
	// DBPath is the path to the SQLite database file.
	// Use ":memory:" for an in-memory database.
	DBPath string

	// Dimensions is the fixed embedding vector dimension.
	Dimensions int
}

// NewIndex opens (or creates) a sqlite-vec backed index.
func NewIndex(c Config, logger *zap.Logger) (*Index, error) {
	// enable connection to have sqlite-vec extension
	sqlite_vec.Auto()

	if c.DBPath == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if c.Dimensions <= 0 {
		return nil, fmt.Errorf("index dimensions must be positive, got %d", c.Dimensions)
	}

	db, err := sql.Open("sqlite3", c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Verify sqlite-vec is loaded
	var vecVersion string
	if err := db.QueryRow("SELECT vec_version()").Scan(&vecVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite-vec not available: %w", err)
	}

	// The projects table rowid doubles as the insertion index; vec0 virtual
	// tables use integer rowids, so embeddings reuse the same rowid.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS projects (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id INTEGER NOT NULL,
			title TEXT NOT NULL,
			year INTEGER NOT NULL,
			decision TEXT NOT NULL,
			original_text TEXT NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating projects table: %w", err)
	}

	createVec := fmt.Sprintf(
		`CREATE VIRTUAL TABLE IF NOT EXISTS project_embeddings USING vec0(embedding float[%d] distance_metric=cosine)`,
		c.Dimensions,
	)
	if _, err := db.Exec(createVec); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating vec0 table: %w", err)
	}

	var size int
	if err := db.QueryRow(`SELECT COUNT(*) FROM projects`).Scan(&size); err != nil {
		db.Close()
		return nil, fmt.Errorf("counting projects: %w", err)
	}

	var vecRows int
	if err := db.QueryRow(`SELECT COUNT(*) FROM project_embeddings`).Scan(&vecRows); err != nil {
		db.Close()
		return nil, fmt.Errorf("counting embeddings: %w", err)
	}
	if vecRows != size {
		db.Close()
		return nil, fmt.Errorf("%w: %d metadata rows, %d embedding rows",
			vector.ErrCorruptIndex, size, vecRows)
	}

	logger.Info("sqlite-vec index initialized",
		zap.String("db_path", c.DBPath),
		zap.Int("dimensions", c.Dimensions),
		zap.Int("size", size),
		zap.String("vec_version", vecVersion),
	)

	return &Index{
		db:         db,
		dimensions: c.Dimensions,
		logger:     logger,
		size:       size,
	}, nil
}

// serializeFloat32 converts a float32 slice to the little-endian byte slice
// sqlite-vec expects for float BLOB columns.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// Add normalizes and appends vectors with their records in lock-step inside
// one transaction, so a failed append leaves no half-inserted rows.
func (x *Index) Add(ctx context.Context, vectors [][]float32, records []vector.ProjectRecord) error {
	if len(vectors) != len(records) {
		return fmt.Errorf("%w: %d vectors, %d records",
			vector.ErrLengthMismatch, len(vectors), len(records))
	}
	for i, v := range vectors {
		if len(v) != x.dimensions {
			return fmt.Errorf("%w: vector %d has %d components, index dimension is %d",
				vector.ErrDimensionMismatch, i, len(v), x.dimensions)
		}
	}
	if len(vectors) == 0 {
		return nil
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for i, rec := range records {
		result, err := tx.ExecContext(ctx,
			`INSERT INTO projects(id, title, year, decision, original_text) VALUES (?, ?, ?, ?, ?)`,
			rec.ID, rec.Title, rec.Year, rec.Decision, rec.OriginalText,
		)
		if err != nil {
			return fmt.Errorf("inserting project %d: %w", rec.ID, err)
		}

		rowID, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("getting rowid for project %d: %w", rec.ID, err)
		}

		blob := serializeFloat32(vector.Normalize(vectors[i]))
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO project_embeddings(rowid, embedding) VALUES (?, ?)`,
			rowID, blob,
		); err != nil {
			return fmt.Errorf("inserting embedding for project %d: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	x.size += len(records)

	x.logger.Debug("added entries to sqlite-vec index",
		zap.Int("count", len(records)),
		zap.Int("size", x.size),
	)

	return nil
}

// Search runs a KNN query via vec0 MATCH and joins back to the metadata
// rows. Cosine distance from vec0 is converted to similarity (1 - distance);
// ties break on rowid, the insertion order.
func (x *Index) Search(ctx context.Context, query []float32, k int) ([]vector.Hit, error) {
	if len(query) != x.dimensions {
		return nil, fmt.Errorf("%w: query has %d components, index dimension is %d",
			vector.ErrDimensionMismatch, len(query), x.dimensions)
	}
	if k <= 0 {
		k = 5
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	if x.size == 0 {
		return []vector.Hit{}, nil
	}

	blob := serializeFloat32(vector.Normalize(query))

	rows, err := x.db.QueryContext(ctx, `
		SELECT
			p.id,
			p.title,
			p.year,
			p.decision,
			p.original_text,
			ve.distance
		FROM project_embeddings ve
		INNER JOIN projects p ON p.rowid = ve.rowid
		WHERE ve.embedding MATCH ?
			AND ve.k = ?
		ORDER BY ve.distance, ve.rowid
	`, blob, k)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	var hits []vector.Hit
	for rows.Next() {
		var rec vector.ProjectRecord
		var distance float64
		if err := rows.Scan(&rec.ID, &rec.Title, &rec.Year, &rec.Decision, &rec.OriginalText, &distance); err != nil {
			return nil, fmt.Errorf("scanning query result: %w", err)
		}

		hits = append(hits, vector.Hit{
			Rank:   len(hits) + 1,
			Score:  1.0 - distance,
			Record: rec,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating query results: %w", err)
	}

	if hits == nil {
		hits = []vector.Hit{}
	}
	return hits, nil
}

// Size returns the number of stored entries.
func (x *Index) Size() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.size
}

// Dimensions returns the fixed vector dimension of the index.
func (x *Index) Dimensions() int {
	return x.dimensions
}

// Close closes the underlying database.
func (x *Index) Close() error {
	return x.db.Close()
}
