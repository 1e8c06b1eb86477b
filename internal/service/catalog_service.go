package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Ignatius32/asistencia-informatica-crub/internal/domain"
	"github.com/Ignatius32/asistencia-informatica-crub/internal/repository"
)

const catalogCacheKey = "catalog:areas"

// AreaCatalogEntry is one area with its active categories, as shown on the
// public request form.
type AreaCatalogEntry struct {
	ID         string                  `json:"id"`
	Name       string                  `json:"name"`
	Categories []domain.TicketCategory `json:"categories"`
}

// CatalogService serves the public "areas with active categories" listing,
// cached in Redis with a short TTL. The cache is best-effort: Redis being
// down degrades to a direct database read, never to an error.
type CatalogService struct {
	areas      repository.AreaRepository
	categories repository.CategoryRepository
	cache      *redis.Client
	logger     *zap.Logger
	ttl        time.Duration
}

// NewCatalogService constructs the service. cache may be nil.
func NewCatalogService(areas repository.AreaRepository, categories repository.CategoryRepository, cache *redis.Client, logger *zap.Logger) *CatalogService {
	return &CatalogService{
		areas:      areas,
		categories: categories,
		cache:      cache,
		logger:     logger,
		ttl:        5 * time.Minute,
	}
}

// AreaCatalog lists areas that have at least one active category, each with
// its active categories.
func (s *CatalogService) AreaCatalog(ctx context.Context) ([]AreaCatalogEntry, error) {
	if cached, ok := s.readCache(ctx); ok {
		return cached, nil
	}

	areas, err := s.areas.List(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]AreaCatalogEntry, 0, len(areas))
	for _, area := range areas {
		categories, err := s.categories.ListByArea(ctx, area.ID, true)
		if err != nil {
			return nil, err
		}
		if len(categories) == 0 {
			continue
		}
		entries = append(entries, AreaCatalogEntry{
			ID:         area.ID,
			Name:       area.Name,
			Categories: categories,
		})
	}

	s.writeCache(ctx, entries)
	return entries, nil
}

// Invalidate drops the cached listing after an org change. Best-effort.
func (s *CatalogService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, catalogCacheKey).Err(); err != nil {
		s.logger.Warn("catalog cache invalidation failed", zap.Error(err))
	}
}

func (s *CatalogService) readCache(ctx context.Context) ([]AreaCatalogEntry, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, catalogCacheKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn("catalog cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var entries []AreaCatalogEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		s.logger.Warn("catalog cache decode failed", zap.Error(err))
		return nil, false
	}
	return entries, true
}

func (s *CatalogService) writeCache(ctx context.Context, entries []AreaCatalogEntry) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, catalogCacheKey, raw, s.ttl).Err(); err != nil {
		s.logger.Warn("catalog cache write failed", zap.Error(err))
	}
}
