package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"rentstore/internal/apperrors"
	"rentstore/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Storage is the persistence port for carts keyed by an opaque session key.
// Load returns an empty cart for unknown keys.
type Storage interface {
	Load(ctx context.Context, key string) (*Cart, error)
	Save(ctx context.Context, key string, c *Cart) error
	Clear(ctx context.Context, key string) error
}

// MemoryStorage keeps carts in process memory.
type MemoryStorage struct {
	carts map[string][]byte
	mu    sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{carts: make(map[string][]byte)}
}

func (s *MemoryStorage) Load(_ context.Context, key string) (*Cart, error) {
	s.mu.RLock()
	raw, ok := s.carts[key]
	s.mu.RUnlock()
	if !ok {
		return New(), nil
	}
	return decode(raw)
}

func (s *MemoryStorage) Save(_ context.Context, key string, c *Cart) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}
	s.mu.Lock()
	s.carts[key] = raw
	s.mu.Unlock()
	return nil
}

func (s *MemoryStorage) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.carts, key)
	s.mu.Unlock()
	return nil
}

// GORMStorage persists carts as JSON snapshots.
type GORMStorage struct {
	db *gorm.DB
}

func NewGORMStorage(db *gorm.DB) *GORMStorage {
	return &GORMStorage{db: db}
}

func (s *GORMStorage) Load(ctx context.Context, key string) (*Cart, error) {
	var snap models.CartSnapshot
	err := s.db.WithContext(ctx).First(&snap, "cart_key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w: %w", apperrors.ErrPersistence, err)
	}
	return decode(snap.Payload)
}

func (s *GORMStorage) Save(ctx context.Context, key string, c *Cart) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}
	snap := models.CartSnapshot{Key: key, Payload: raw, UpdatedAt: time.Now()}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cart_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&snap).Error
	if err != nil {
		return fmt.Errorf("failed to save cart: %w: %w", apperrors.ErrPersistence, err)
	}
	return nil
}

func (s *GORMStorage) Clear(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Delete(&models.CartSnapshot{}, "cart_key = ?", key).Error; err != nil {
		return fmt.Errorf("failed to clear cart: %w: %w", apperrors.ErrPersistence, err)
	}
	return nil
}

func decode(raw []byte) (*Cart, error) {
	c := New()
	if err := json.Unmarshal(raw, c); err != nil {
		return nil, fmt.Errorf("failed to decode cart: %w", err)
	}
	if c.Items == nil {
		c.Items = []Item{}
	}
	return c, nil
}
