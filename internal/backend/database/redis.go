package database

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisImagesKey      = "goscore:images"
	redisScoresPrefix   = "goscore:scores:"
	redisCatalogInitKey = "goscore:catalog:initialized"
)

type RedisDatabase struct {
	client *redis.Client
}

// NewRedisDatabase connects to the redis instance described by a redis:// URL.
func NewRedisDatabase(connectionString string) (DatabaseService, error) {
	opts, err := redis.ParseURL(connectionString)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	return &RedisDatabase{client: redis.NewClient(opts)}, nil
}

// CreateDatabase only checks connectivity; redis has no schema.
func (r *RedisDatabase) CreateDatabase() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.client.Ping(ctx).Err()
}

func (r *RedisDatabase) DoesDatabaseExist() bool {
	return r.CreateDatabase() == nil
}

func (r *RedisDatabase) Close() error {
	return r.client.Close()
}

func (r *RedisDatabase) InitializeCatalog(ctx context.Context, filenames []string) (bool, error) {
	created := false
	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		exists, err := tx.Exists(ctx, redisCatalogInitKey).Result()
		if err != nil {
			return err
		}
		if exists > 0 {
			return nil
		}

		fields, _, err := newImageFields(filenames)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if len(fields) > 0 {
				pipe.HSet(ctx, redisImagesKey, fields...)
			}
			pipe.Set(ctx, redisCatalogInitKey, time.Now().UTC().Format(time.RFC3339), 0)
			return nil
		})
		if err != nil {
			return err
		}
		created = true
		return nil
	}, redisCatalogInitKey)
	if errors.Is(err, redis.TxFailedErr) {
		// Another process initialized the catalog between WATCH and EXEC.
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return created, nil
}

func (r *RedisDatabase) AddImages(ctx context.Context, filenames []string) ([]*Image, error) {
	fields, images, err := newImageFields(filenames)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return images, nil
	}
	if err := r.client.HSet(ctx, redisImagesKey, fields...).Err(); err != nil {
		return nil, err
	}
	return images, nil
}

func newImageFields(filenames []string) ([]any, []*Image, error) {
	fields := make([]any, 0, 2*len(filenames))
	images := make([]*Image, 0, len(filenames))
	for _, filename := range filenames {
		id, err := generateID()
		if err != nil {
			return nil, nil, fmt.Errorf("generating id for %s: %w", filename, err)
		}
		fields = append(fields, id, filename)
		images = append(images, &Image{ID: id, Filename: filename})
	}
	return fields, images, nil
}

func (r *RedisDatabase) GetAllImages(ctx context.Context) ([]*Image, error) {
	entries, err := r.client.HGetAll(ctx, redisImagesKey).Result()
	if err != nil {
		return nil, err
	}
	images := make([]*Image, 0, len(entries))
	for id, filename := range entries {
		images = append(images, &Image{ID: id, Filename: filename})
	}
	return images, nil
}

func (r *RedisDatabase) AddScore(ctx context.Context, imageID string, score int64) error {
	return r.client.RPush(ctx, redisScoresPrefix+imageID, score).Err()
}

func (r *RedisDatabase) GetScores(ctx context.Context, imageID string) ([]int64, error) {
	values, err := r.client.LRange(ctx, redisScoresPrefix+imageID, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	scores := make([]int64, 0, len(values))
	for _, v := range values {
		score, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("corrupt score %q for image %s: %w", v, imageID, err)
		}
		scores = append(scores, score)
	}
	return scores, nil
}
