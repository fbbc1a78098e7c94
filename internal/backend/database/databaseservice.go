package database

import "context"

type DatabaseService interface {
	CreateDatabase() error
	DoesDatabaseExist() bool
	Close() error

	// InitializeCatalog inserts one image row per filename and marks the catalog as initialized
	// in a single unit of work. If the catalog was already initialized nothing is written and
	// created is false.
	InitializeCatalog(ctx context.Context, filenames []string) (created bool, err error)
	AddImages(ctx context.Context, filenames []string) ([]*Image, error)
	GetAllImages(ctx context.Context) ([]*Image, error)

	AddScore(ctx context.Context, imageID string, score int64) error
	// GetScores returns all scores for imageID in storage order. An empty result is not an error.
	GetScores(ctx context.Context, imageID string) ([]int64, error)
}
