package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/Boatkungg/teerute-tpat13-checker/pkg/errors"
)

// ErrStoreDisabled is returned by writes when no repository is attached.
var ErrStoreDisabled = errors.New("result store not configured")

// CacheRepository abstracts persistence for stored results.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CacheOption tunes a CacheService.
type CacheOption func(*CacheService)

// WithOpTimeout bounds every repository call. Zero leaves calls bounded only by the caller.
func WithOpTimeout(d time.Duration) CacheOption {
	return func(s *CacheService) {
		if d > 0 {
			s.opTimeout = d
		}
	}
}

// CacheService holds merge and score records for later retrieval. A miss is
// not an error; repository failures are.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	opTimeout  time.Duration
	logger     *zap.Logger
}

func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, opts ...CacheOption) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 2 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &CacheService{
		repo:       repo,
		metrics:    metrics,
		defaultTTL: defaultTTL,
		logger:     logger.With(zap.String("component", "result_store")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enabled reports whether a repository is attached.
func (s *CacheService) Enabled() bool {
	return s != nil && s.repo != nil
}

// Get loads key into dest and reports whether it was found.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	ctx, cancel := s.bound(ctx)
	defer cancel()

	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	hit := err == nil
	s.metrics.RecordCacheOperation(hit, time.Since(start))

	switch {
	case hit:
		return true, nil
	case errors.Is(err, appErrors.ErrCacheMiss):
		return false, nil
	default:
		s.logger.Warn("lookup failed", zap.String("key", key), zap.Error(err))
		return false, fmt.Errorf("load %s: %w", key, err)
	}
}

// Set stores value under key. A non-positive ttl uses the service default.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.Enabled() {
		return ErrStoreDisabled
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	ctx, cancel := s.bound(ctx)
	defer cancel()

	start := time.Now()
	err := s.repo.Set(ctx, key, value, ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("write failed", zap.String("key", key), zap.Duration("ttl", ttl), zap.Error(err))
		return fmt.Errorf("store %s: %w", key, err)
	}
	return nil
}

// Invalidate removes every record matching the glob pattern.
func (s *CacheService) Invalidate(ctx context.Context, pattern string) error {
	if !s.Enabled() {
		return nil
	}
	ctx, cancel := s.bound(ctx)
	defer cancel()

	if err := s.repo.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("invalidate failed", zap.String("pattern", pattern), zap.Error(err))
		return fmt.Errorf("invalidate %s: %w", pattern, err)
	}
	return nil
}

func (s *CacheService) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.opTimeout)
}
