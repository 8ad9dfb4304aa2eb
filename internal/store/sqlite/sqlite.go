package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"bookshield/internal/domain"
)

// Store persists book chunks in a SQLite database so a book survives
// restarts and its index can be rebuilt without re-chunking.
type Store struct {
	conn *sql.DB
	path string
}

// NewStore opens (or creates) the database at path and sets up tables.
func NewStore(path string) (*Store, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	s := &Store{conn: conn, path: path}
	if err := s.setupTables(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to setup database tables: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) setupTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS chunks (
			book_id TEXT NOT NULL,
			chunk_id TEXT NOT NULL,
			chapter INTEGER NOT NULL,
			position INTEGER NOT NULL,
			text TEXT NOT NULL,
			embedding TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (book_id, chunk_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_book_chapter ON chunks(book_id, chapter)`,
	}
	for _, query := range queries {
		if _, err := s.conn.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %s, error: %w", query, err)
		}
	}
	return nil
}

// Save replaces all chunks for the book in one transaction.
func (s *Store) Save(ctx context.Context, bookID string, chunks []domain.Chunk) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE book_id = ?`, bookID); err != nil {
		return fmt.Errorf("failed to clear book: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO chunks (book_id, chunk_id, chapter, position, text, embedding) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		embeddingJSON, err := json.Marshal(c.Embedding)
		if err != nil {
			return fmt.Errorf("failed to marshal embedding: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, bookID, c.ID, c.Chapter, c.Position, c.Text, string(embeddingJSON)); err != nil {
			return fmt.Errorf("failed to insert chunk %s: %w", c.ID, err)
		}
	}
	return tx.Commit()
}

// ChunksUpTo returns the book's chunks with chapter <= maxChapter ordered by
// (chapter, position). An unknown book yields ErrBookNotFound.
func (s *Store) ChunksUpTo(ctx context.Context, bookID string, maxChapter int) ([]domain.Chunk, error) {
	var count int
	if err := s.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks WHERE book_id = ?`, bookID).Scan(&count); err != nil {
		return nil, fmt.Errorf("failed to count chunks: %w", err)
	}
	if count == 0 {
		return nil, domain.ErrBookNotFound
	}

	rows, err := s.conn.QueryContext(ctx,
		`SELECT chunk_id, chapter, position, text, embedding FROM chunks WHERE book_id = ? AND chapter <= ? ORDER BY chapter, position`,
		bookID, maxChapter)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk
	for rows.Next() {
		c := domain.Chunk{BookID: bookID}
		var embeddingJSON string
		if err := rows.Scan(&c.ID, &c.Chapter, &c.Position, &c.Text, &embeddingJSON); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		if err := json.Unmarshal([]byte(embeddingJSON), &c.Embedding); err != nil {
			return nil, fmt.Errorf("failed to unmarshal embedding for chunk %s: %w", c.ID, err)
		}
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return chunks, nil
}

// Books lists the ids of all stored books in sorted order.
func (s *Store) Books(ctx context.Context) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT DISTINCT book_id FROM chunks ORDER BY book_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan book id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return ids, nil
}
