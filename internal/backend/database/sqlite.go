package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const catalogInitializedKey = "catalog_initialized"

type SQLiteDatabase struct {
	db               *sql.DB
	connectionString string
}

func NewSQLiteDatabase(connectionString string) (DatabaseService, error) {
	db, err := sql.Open("sqlite", connectionString)
	if err != nil {
		return nil, err
	}

	// A single connection serialises writers and keeps ":memory:" databases alive across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	return &SQLiteDatabase{
		db:               db,
		connectionString: connectionString,
	}, nil
}

func (s *SQLiteDatabase) CreateDatabase() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS images (
			id TEXT PRIMARY KEY,
			filename TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS scores (
			image_id TEXT,
			score INTEGER,
			FOREIGN KEY (image_id) REFERENCES images (id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scores_image_id ON scores(image_id)`,
		`CREATE TABLE IF NOT EXISTS catalog_state (
			key TEXT PRIMARY KEY,
			value TEXT
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteDatabase) DoesDatabaseExist() bool {
	// In SQLite, the database file is created when you connect to it.
	// So we can assume it exists if we can successfully ping the database.
	err := s.db.Ping()
	return err == nil
}

func (s *SQLiteDatabase) InitializeCatalog(ctx context.Context, filenames []string) (created bool, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var marker int
	if err = tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM catalog_state WHERE key = ?", catalogInitializedKey).Scan(&marker); err != nil {
		return false, fmt.Errorf("reading catalog state: %w", err)
	}
	if marker > 0 {
		err = tx.Rollback()
		return false, err
	}

	if _, err = insertImages(ctx, tx, filenames); err != nil {
		return false, err
	}
	if _, err = tx.ExecContext(ctx, "INSERT INTO catalog_state (key, value) VALUES (?, datetime('now'))", catalogInitializedKey); err != nil {
		return false, fmt.Errorf("marking catalog initialized: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

func (s *SQLiteDatabase) AddImages(ctx context.Context, filenames []string) (images []*Image, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	images, err = insertImages(ctx, tx, filenames)
	if err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return images, nil
}

func insertImages(ctx context.Context, tx *sql.Tx, filenames []string) ([]*Image, error) {
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO images (id, filename) VALUES (?, ?)")
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = stmt.Close()
	}()

	images := make([]*Image, 0, len(filenames))
	for _, filename := range filenames {
		id, err := generateID()
		if err != nil {
			return nil, fmt.Errorf("generating id for %s: %w", filename, err)
		}
		if _, err := stmt.ExecContext(ctx, id, filename); err != nil {
			return nil, fmt.Errorf("inserting image %s: %w", filename, err)
		}
		images = append(images, &Image{ID: id, Filename: filename})
	}
	return images, nil
}

func (s *SQLiteDatabase) GetAllImages(ctx context.Context) ([]*Image, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, filename FROM images")
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close() // Explicitly ignore error as we're already returning an error from the function
	}()

	var images []*Image
	for rows.Next() {
		var img Image
		if err := rows.Scan(&img.ID, &img.Filename); err != nil {
			return nil, err
		}
		images = append(images, &img)
	}
	return images, rows.Err()
}

func (s *SQLiteDatabase) AddScore(ctx context.Context, imageID string, score int64) error {
	_, err := s.db.ExecContext(ctx, "INSERT INTO scores (image_id, score) VALUES (?, ?)", imageID, score)
	return err
}

func (s *SQLiteDatabase) GetScores(ctx context.Context, imageID string) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT score FROM scores WHERE image_id = ? ORDER BY rowid", imageID)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	scores := []int64{}
	for rows.Next() {
		var score int64
		if err := rows.Scan(&score); err != nil {
			return nil, err
		}
		scores = append(scores, score)
	}
	return scores, rows.Err()
}
