package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sanosuguru/go-movie-ticket-booking/internal/domain/ticket"
)

var (
	ErrCacheMiss = errors.New("キャッシュが見つかりません")
)

// 「予約ゼロが確認済み」とキャッシュミスを区別するための番兵値
const emptyMarker = "-"

// AvailabilityCache は上映回ごとの予約済み座席集合をキャッシュする
// あくまで読み取りの高速化であり、正は常にDB側（予約確定時に無効化される）
type AvailabilityCache struct {
	client *redis.Client
}

// NewAvailabilityCache は新しいAvailabilityCacheインスタンスを作成する
func NewAvailabilityCache(client *redis.Client) *AvailabilityCache {
	return &AvailabilityCache{client: client}
}

// GetBookedSeatIDs は予約済み座席集合をキャッシュから取得する
func (c *AvailabilityCache) GetBookedSeatIDs(ctx context.Context, st ticket.Showtime) (map[string]struct{}, error) {
	val, err := c.client.Get(ctx, c.key(st)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("キャッシュ取得に失敗: %w", err)
	}
	booked := make(map[string]struct{})
	if val == emptyMarker {
		return booked, nil
	}
	for _, id := range strings.Split(val, ",") {
		booked[id] = struct{}{}
	}
	return booked, nil
}

// SetBookedSeatIDs は予約済み座席集合をキャッシュに保存する
func (c *AvailabilityCache) SetBookedSeatIDs(ctx context.Context, st ticket.Showtime, booked map[string]struct{}, ttl time.Duration) error {
	val := emptyMarker
	if len(booked) > 0 {
		ids := make([]string, 0, len(booked))
		for id := range booked {
			ids = append(ids, id)
		}
		val = strings.Join(ids, ",")
	}
	if err := c.client.Set(ctx, c.key(st), val, ttl).Err(); err != nil {
		return fmt.Errorf("キャッシュ保存に失敗: %w", err)
	}
	return nil
}

// Invalidate は上映回のキャッシュを無効化する
func (c *AvailabilityCache) Invalidate(ctx context.Context, st ticket.Showtime) error {
	if err := c.client.Del(ctx, c.key(st)).Err(); err != nil {
		return fmt.Errorf("キャッシュ無効化に失敗: %w", err)
	}
	return nil
}

func (c *AvailabilityCache) key(st ticket.Showtime) string {
	return fmt.Sprintf("seats:booked:%s", st.Key())
}
