package core

import (
	"errors"

	"github.com/jo-hoe/goscore/internal/backend/imagestore"
)

var (
	// ErrNoImages is returned when the catalog is empty
	ErrNoImages = errors.New("no images found")
	// ErrNoScores is returned when an image id has no scores. Unknown ids are reported the same way.
	ErrNoScores = errors.New("no scores found for this image")
	// ErrInvalidScore is returned for a submission without image id
	ErrInvalidScore = errors.New("invalid score submission")
	// ErrUnknownVariant is returned when a requested image variant is not configured
	ErrUnknownVariant = errors.New("unknown image variant")
	// ErrImageNotFound and ErrInvalidPath come straight from the image store
	ErrImageNotFound = imagestore.ErrNotFound
	ErrInvalidPath   = imagestore.ErrInvalidPath
)
