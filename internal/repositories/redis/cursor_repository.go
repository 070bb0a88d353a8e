package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/ArowuTest/mtn-ras-backend/internal/repositories"
	goredis "github.com/redis/go-redis/v9"
)

// CursorRepository keeps the batch cursor under a single Redis key so a cycle
// interrupted in one process resumes in the next
type CursorRepository struct {
	client goredis.Cmdable
	key    string
}

func NewCursorRepository(client goredis.Cmdable, key string) *CursorRepository {
	return &CursorRepository{client: client, key: key}
}

func (r *CursorRepository) Load(ctx context.Context) (string, error) {
	v, err := r.client.Get(ctx, r.key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load cursor %s: %w", r.key, err)
	}
	return v, nil
}

func (r *CursorRepository) Save(ctx context.Context, cursor string) error {
	if err := r.client.Set(ctx, r.key, cursor, 0).Err(); err != nil {
		return fmt.Errorf("save cursor %s: %w", r.key, err)
	}
	return nil
}

func (r *CursorRepository) Reset(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("reset cursor %s: %w", r.key, err)
	}
	return nil
}

var _ repositories.CursorRepository = (*CursorRepository)(nil)
