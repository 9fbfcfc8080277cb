package pricing

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/rustyeddy/arena/logger"
	"github.com/rustyeddy/arena/pkg/errors"
)

// Upstream fetches a single live price for one of our symbols.
type Upstream interface {
	Price(ctx context.Context, symbol string) (float64, error)
}

// Service answers batched price requests from the cache, going upstream
// only for misses.
type Service struct {
	cache    *Cache
	upstream Upstream
	log      *logger.Logger
	group    singleflight.Group
}

// NewService builds a price service. A nil upstream is allowed and makes
// every request fail with ErrCodeInvalidConfiguration, which is how a
// missing API key surfaces to callers.
func NewService(cache *Cache, upstream Upstream, log *logger.Logger) *Service {
	if cache == nil {
		cache = NewCache(DefaultTTL, SystemClock{})
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		cache:    cache,
		upstream: upstream,
		log:      log.Named("pricing"),
	}
}

// Prices returns a price for every requested symbol that is cached or
// could be fetched. Symbols the upstream rejects or fails on are omitted.
func (s *Service) Prices(ctx context.Context, symbols []string) (map[string]float64, error) {
	symbols = normalize(symbols)
	if len(symbols) == 0 {
		return nil, errors.New(errors.ErrCodeMissingParameter, "symbols array required")
	}
	if s.upstream == nil {
		s.log.Error("upstream price source not configured")
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "API key not configured")
	}

	prices, misses := s.cache.Get(symbols)

	for _, sym := range misses {
		if err := ctx.Err(); err != nil {
			return prices, err
		}

		// The shared fetch outlives any one caller and is bounded by the
		// upstream client's own timeout.
		ch := s.group.DoChan(sym, func() (any, error) {
			p, err := s.upstream.Price(context.WithoutCancel(ctx), sym)
			if err != nil {
				return 0.0, err
			}
			s.cache.Set(sym, p)
			return p, nil
		})

		var r singleflight.Result
		select {
		case r = <-ch:
		case <-ctx.Done():
			return prices, ctx.Err()
		}

		v, err, shared := r.Val, r.Err, r.Shared
		if err != nil {
			if errors.HasCode(err, errors.ErrCodeDataNotFound) {
				s.log.Debug("symbol not supported upstream", zap.String("symbol", sym))
			} else {
				s.log.Warn("fetch price", zap.String("symbol", sym), zap.Error(err))
			}
			continue
		}

		prices[sym] = v.(float64)
		s.log.Debug("fetched price",
			zap.String("symbol", sym),
			zap.Float64("price", prices[sym]),
			zap.Bool("shared", shared))
	}

	return prices, nil
}

// normalize trims, upper-cases and de-duplicates symbols, dropping blanks.
func normalize(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
