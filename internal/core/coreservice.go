package core

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math/rand/v2"
	"os"

	"github.com/jo-hoe/goscore/internal/backend/database"
	"github.com/jo-hoe/goscore/internal/backend/imageprocessing"
	"github.com/jo-hoe/goscore/internal/backend/imagestore"
)

// CoreService owns the store handle and the image directory for the lifetime of the process.
// It keeps no other mutable state; every call reads from the store.
type CoreService struct {
	config          *ServiceConfig
	databaseService database.DatabaseService
	imageStore      *imagestore.ImageStore
	variants        map[string]*imageprocessing.CommandInvoker
	intN            func(n int) int
}

// NewCoreService opens the image directory and the store, then initializes the catalog
// if this store has never been initialized.
func NewCoreService(ctx context.Context, config *ServiceConfig) (*CoreService, error) {
	variants, err := buildVariants(config.Variants)
	if err != nil {
		return nil, err
	}

	imageStore, err := imagestore.Open(config.ImageDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to open image store: %w", err)
	}

	databaseService, err := getDatabaseService(config)
	if err != nil {
		_ = imageStore.Close()
		return nil, err
	}

	service := &CoreService{
		config:          config,
		databaseService: databaseService,
		imageStore:      imageStore,
		variants:        variants,
		intN:            rand.IntN,
	}

	if err := service.initializeCatalog(ctx); err != nil {
		_ = service.Close()
		return nil, err
	}
	return service, nil
}

func getDatabaseService(config *ServiceConfig) (database.DatabaseService, error) {
	databaseService, err := database.NewDatabase(config.Database.Type, config.Database.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	slog.Info("database initialized successfully", "type", config.Database.Type)
	return databaseService, nil
}

func buildVariants(configs []VariantConfig) (map[string]*imageprocessing.CommandInvoker, error) {
	variants := make(map[string]*imageprocessing.CommandInvoker, len(configs))
	for _, vc := range configs {
		invoker, err := imageprocessing.NewCommandInvokerFromConfig(vc.Name, vc.Commands)
		if err != nil {
			return nil, err
		}
		variants[vc.Name] = invoker
	}
	return variants, nil
}

func (service *CoreService) initializeCatalog(ctx context.Context) error {
	filenames, err := service.imageStore.List()
	if err != nil {
		return err
	}
	created, err := service.databaseService.InitializeCatalog(ctx, filenames)
	if err != nil {
		return fmt.Errorf("failed to initialize catalog: %w", err)
	}
	if created {
		slog.Info("catalog initialized from image directory",
			"directory", service.imageStore.Directory(), "count", len(filenames))
	} else {
		slog.Info("catalog already initialized, skipping directory scan",
			"directory", service.imageStore.Directory())
	}
	return nil
}

func (service *CoreService) Config() *ServiceConfig {
	return service.config
}

// RandomImages returns a uniform sample without replacement of min(count, catalog size) images.
func (service *CoreService) RandomImages(ctx context.Context, count int) ([]*database.Image, error) {
	if count < 0 {
		return nil, fmt.Errorf("count must not be negative, got %d", count)
	}
	images, err := service.databaseService.GetAllImages(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	if len(images) == 0 {
		return nil, ErrNoImages
	}
	return sampleImages(images, count, service.intN), nil
}

// sampleImages runs a partial Fisher-Yates shuffle over images in place.
func sampleImages(images []*database.Image, count int, intN func(n int) int) []*database.Image {
	k := min(count, len(images))
	for i := 0; i < k; i++ {
		j := i + intN(len(images)-i)
		images[i], images[j] = images[j], images[i]
	}
	return images[:k]
}

// OpenImage opens a file of the image directory. The caller must close the file.
func (service *CoreService) OpenImage(filename string) (*os.File, fs.FileInfo, error) {
	slog.Debug("resolving image", "filename", filename, "directory", service.imageStore.Directory())
	return service.imageStore.Open(filename)
}

func (service *CoreService) HasVariant(name string) bool {
	_, ok := service.variants[name]
	return ok
}

// RenderImageVariant reads filename and runs it through the named variant pipeline.
func (service *CoreService) RenderImageVariant(filename, variant string) ([]byte, error) {
	invoker, ok := service.variants[variant]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVariant, variant)
	}
	data, err := service.imageStore.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return invoker.Execute(data)
}

// SubmitScore appends a score. The image id is not checked against the catalog.
func (service *CoreService) SubmitScore(ctx context.Context, imageID string, score int64) error {
	if imageID == "" {
		return fmt.Errorf("%w: image_id is required", ErrInvalidScore)
	}
	if err := service.databaseService.AddScore(ctx, imageID, score); err != nil {
		return fmt.Errorf("failed to store score: %w", err)
	}
	return nil
}

// Scores returns the stored scores for imageID in storage order, or ErrNoScores.
func (service *CoreService) Scores(ctx context.Context, imageID string) ([]int64, error) {
	scores, err := service.databaseService.GetScores(ctx, imageID)
	if err != nil {
		return nil, fmt.Errorf("failed to load scores: %w", err)
	}
	if len(scores) == 0 {
		return nil, ErrNoScores
	}
	return scores, nil
}

// Reconcile adds catalog rows for directory entries that are not yet cataloged.
// Rows whose files have disappeared are kept.
func (service *CoreService) Reconcile(ctx context.Context) ([]*database.Image, error) {
	filenames, err := service.imageStore.List()
	if err != nil {
		return nil, err
	}
	images, err := service.databaseService.GetAllImages(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	known := make(map[string]bool, len(images))
	for _, img := range images {
		known[img.Filename] = true
	}
	var missing []string
	for _, name := range filenames {
		if !known[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil, nil
	}

	added, err := service.databaseService.AddImages(ctx, missing)
	if err != nil {
		return nil, fmt.Errorf("failed to add images: %w", err)
	}
	slog.Info("catalog reconciled", "added", len(added))
	return added, nil
}

// Ready reports whether the store is reachable
func (service *CoreService) Ready() bool {
	return service.databaseService.DoesDatabaseExist()
}

func (service *CoreService) Close() error {
	return errors.Join(service.databaseService.Close(), service.imageStore.Close())
}
