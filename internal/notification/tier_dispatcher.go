package notification

import (
	"context"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-movie-ticket-booking/internal/domain/loyalty"
	"github.com/sanosuguru/go-movie-ticket-booking/internal/pkg/logger"
)

// Handler はランク変更イベントを受け取るコールバック
type Handler func(loyalty.TierChange)

// TierDispatcher はランク変更通知をプロセス内で配送する単一コンシューマーのディスパッチャー
// 通知は最低1回の配送を目指すが耐久性はなく、欠落しても points / tier の正しさには影響しない
type TierDispatcher struct {
	events  chan loyalty.TierChange
	handler Handler
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewTierDispatcher は新しいディスパッチャーを作成する
func NewTierDispatcher(buffer int, handler Handler) *TierDispatcher {
	if buffer <= 0 {
		buffer = 16
	}
	return &TierDispatcher{
		events:  make(chan loyalty.TierChange, buffer),
		handler: handler,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

// Notify はランク変更イベントを投入する
// コミット確定後にのみ呼ばれる。バッファ満杯時はブロックせず破棄する（通知は正の状態ではない）
func (d *TierDispatcher) Notify(ev loyalty.TierChange) {
	select {
	case d.events <- ev:
	default:
		logger.Warn("ランク変更通知を破棄しました",
			zap.String("user_id", ev.UserID),
			zap.String("new_tier", string(ev.NewTier)),
		)
	}
}

// Start はディスパッチループを開始する
func (d *TierDispatcher) Start(ctx context.Context) {
	logger.Info("ランク変更ディスパッチャー開始")
	defer close(d.doneCh)

	for {
		select {
		case <-ctx.Done():
			logger.Info("ランク変更ディスパッチャー停止（コンテキストキャンセル）")
			return
		case <-d.stopCh:
			logger.Info("ランク変更ディスパッチャー停止（シグナル受信）")
			return
		case ev := <-d.events:
			d.dispatch(ev)
		}
	}
}

// Stop はディスパッチャーを停止する
func (d *TierDispatcher) Stop() {
	close(d.stopCh)
	<-d.doneCh
}

func (d *TierDispatcher) dispatch(ev loyalty.TierChange) {
	logger.Info("会員ランク変更",
		zap.String("user_id", ev.UserID),
		zap.String("old_tier", string(ev.OldTier)),
		zap.String("new_tier", string(ev.NewTier)),
		zap.Int64("points", ev.Points),
	)
	if d.handler != nil {
		d.handler(ev)
	}
}
