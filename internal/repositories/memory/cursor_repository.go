package memory

import (
	"context"
	"sync"

	"github.com/ArowuTest/mtn-ras-backend/internal/repositories"
)

// CursorRepository holds the batch cursor for the lifetime of the process.
// It is used when no Redis address is configured.
type CursorRepository struct {
	mu     sync.Mutex
	cursor string
}

func NewCursorRepository() *CursorRepository {
	return &CursorRepository{}
}

func (r *CursorRepository) Load(context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cursor, nil
}

func (r *CursorRepository) Save(_ context.Context, cursor string) error {
	r.mu.Lock()
	r.cursor = cursor
	r.mu.Unlock()
	return nil
}

func (r *CursorRepository) Reset(context.Context) error {
	return r.Save(context.Background(), "")
}

var _ repositories.CursorRepository = (*CursorRepository)(nil)
