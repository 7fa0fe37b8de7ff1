package valueobject

import (
	"time"

	"github.com/ignatzorin/tokenbid-backend/internal/pkg/apperror"
)

// Стоимость действий в токенах.
const (
	ProposalFee      int64 = 100
	UnlockFee        int64 = 100
	DirectContactFee int64 = 200
	SignupGrant      int64 = 1000
)

const (
	ConnectionTTL      = 7 * 24 * time.Hour
	WithdrawalCooldown = 7 * 24 * time.Hour
)

// Бонусы за пакеты токенов. Для произвольной суммы бонус не начисляется.
var purchaseBonuses = map[int64]int64{
	100:  0,
	500:  50,
	1000: 150,
	2000: 400,
}

// PurchaseBonus возвращает бонус для пакета токенов.
func PurchaseBonus(amount int64) int64 {
	return purchaseBonuses[amount]
}

// NewTokenAmount проверяет, что сумма операции положительна.
func NewTokenAmount(amount int64) (int64, error) {
	if amount <= 0 {
		return 0, apperror.New(apperror.ErrCodeValidation, "количество токенов должно быть больше 0")
	}
	return amount, nil
}
