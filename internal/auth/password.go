package auth

import (
	"context"

	"golang.org/x/crypto/bcrypt"
)

// Hasher はパスワードのハッシュ化と検証を提供します。
// bcryptはCPU負荷が高いため、同時実行数をスロットで制限し、
// リクエスト処理全体が計算に占有されないようにします。
type Hasher struct {
	cost  int
	slots chan struct{}
}

// NewHasher は同時実行数を workers に制限したハッシャーを作成します。
func NewHasher(workers int) *Hasher {
	if workers < 1 {
		workers = 1
	}
	return &Hasher{
		cost:  bcrypt.DefaultCost,
		slots: make(chan struct{}, workers),
	}
}

// Hash は平文パスワードをbcryptでハッシュ化します。
// ソルトはbcrypt内部で生成されるため、同じ入力でも毎回異なる結果になります。
func (h *Hasher) Hash(ctx context.Context, password string) (string, error) {
	if err := h.acquire(ctx); err != nil {
		return "", err
	}
	defer h.release()

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify は平文パスワードとハッシュ値を比較します。
// ハッシュ値が不正な形式の場合も false を返します（フェイルクローズ）。
func (h *Hasher) Verify(ctx context.Context, plain, hashed string) bool {
	if err := h.acquire(ctx); err != nil {
		return false
	}
	defer h.release()

	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}

func (h *Hasher) acquire(ctx context.Context) error {
	select {
	case h.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hasher) release() {
	<-h.slots
}
