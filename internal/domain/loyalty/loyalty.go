package loyalty

// Tier は会員ランクを表す
type Tier string

const (
	TierSilver Tier = "Silver"
	TierGold   Tier = "Gold"
	TierVIP    Tier = "VIP"
)

// ランク閾値と獲得レート
const (
	GoldThreshold  = 500
	VIPThreshold   = 1000
	PointUnitPrice = 10_000 // 10,000通貨単位の支払いごとに1ポイント
)

// State はユーザープロフィールに埋め込まれるロイヤルティ状態
// Tier は Points から導出される値のキャッシュで、更新のたびに再計算して整合を保つ
type State struct {
	Points int64
	Tier   Tier
}

// TierFor は累計ポイントから会員ランクを導出する純粋関数
func TierFor(points int64) Tier {
	switch {
	case points >= VIPThreshold:
		return TierVIP
	case points >= GoldThreshold:
		return TierGold
	default:
		return TierSilver
	}
}

// EarnedPoints は支払額から獲得ポイントを計算する（切り捨ての整数除算）
func EarnedPoints(amountSpent int64) int64 {
	if amountSpent <= 0 {
		return 0
	}
	return amountSpent / PointUnitPrice
}

// ApplyEarnedPoints は支払いによるポイント加算とランク再計算を行う純粋関数
// tierChanged が真の場合、呼び出し側はコミット確定後に1回だけ通知を発行する
func ApplyEarnedPoints(currentPoints, amountSpent int64) (newPoints int64, newTier Tier, tierChanged bool) {
	newPoints = currentPoints + EarnedPoints(amountSpent)
	newTier = TierFor(newPoints)
	tierChanged = newTier != TierFor(currentPoints)
	return newPoints, newTier, tierChanged
}

// TierChange はランク変更の通知イベント
type TierChange struct {
	UserID  string
	OldTier Tier
	NewTier Tier
	Points  int64
}
