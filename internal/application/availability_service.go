package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-movie-ticket-booking/internal/domain/seat"
	"github.com/sanosuguru/go-movie-ticket-booking/internal/domain/ticket"
	redisinfra "github.com/sanosuguru/go-movie-ticket-booking/internal/infrastructure/redis"
	"github.com/sanosuguru/go-movie-ticket-booking/internal/pkg/logger"
)

const defaultAvailabilityCacheTTL = 30 * time.Second

// AvailabilityService は上映回ごとの空席状況を提供する（読み取り専用）
type AvailabilityService struct {
	ticketRepo ticket.Repository
	cache      *redisinfra.AvailabilityCache
	cacheTTL   time.Duration
}

func NewAvailabilityService(tr ticket.Repository, cache *redisinfra.AvailabilityCache, cacheTTL time.Duration) *AvailabilityService {
	if cacheTTL <= 0 {
		cacheTTL = defaultAvailabilityCacheTTL
	}
	return &AvailabilityService{ticketRepo: tr, cache: cache, cacheTTL: cacheTTL}
}

// GetBookedSeatIDs は上映回の予約済み座席ID集合を返す
// 取得失敗は必ずエラーとして返す。「予約なしが確認できた」と「確認できなかった」を
// 呼び出し側が区別できなければ二重予約の温床になるため、空集合への畳み込みはしない
func (s *AvailabilityService) GetBookedSeatIDs(ctx context.Context, st ticket.Showtime) (map[string]struct{}, error) {
	// キャッシュから取得を試みる
	if s.cache != nil {
		booked, err := s.cache.GetBookedSeatIDs(ctx, st)
		if err == nil {
			logger.Debug("キャッシュヒット", zap.String("showtime", st.Key()), zap.Int("booked", len(booked)))
			return booked, nil
		}
		if !errors.Is(err, redisinfra.ErrCacheMiss) {
			logger.Warn("キャッシュ取得エラー", zap.Error(err))
		}
	}

	// DBから取得
	booked, err := s.ticketRepo.GetBookedSeatIDs(ctx, st)
	if err != nil {
		return nil, fmt.Errorf("空席状況の取得に失敗: %w", err)
	}

	// キャッシュに保存
	if s.cache != nil {
		if cacheErr := s.cache.SetBookedSeatIDs(ctx, st, booked, s.cacheTTL); cacheErr != nil {
			logger.Warn("キャッシュ保存エラー", zap.Error(cacheErr))
		}
	}

	return booked, nil
}

// GetSeatMap は標準レイアウトに予約状況を反映した座席一覧を返す
func (s *AvailabilityService) GetSeatMap(ctx context.Context, st ticket.Showtime) ([]seat.Seat, error) {
	booked, err := s.GetBookedSeatIDs(ctx, st)
	if err != nil {
		return nil, err
	}
	seats := seat.Generate()
	for i := range seats {
		if _, ok := booked[seats[i].ID]; ok {
			seats[i].IsBooked = true
		}
	}
	return seats, nil
}

// InvalidateCache は上映回のキャッシュを無効化する
func (s *AvailabilityService) InvalidateCache(ctx context.Context, st ticket.Showtime) {
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, st); err != nil {
			logger.Warn("キャッシュ無効化エラー", zap.Error(err))
		}
	}
}
