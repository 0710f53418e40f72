package pricing

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Reason 优惠不可用原因码；空串表示可用
type Reason string

const (
	ReasonOK             Reason = ""
	ReasonInvalid        Reason = "invalid"
	ReasonInactive       Reason = "inactive"
	ReasonNotStarted     Reason = "not_started"
	ReasonExpired        Reason = "expired"
	ReasonMinAmount      Reason = "min_amount"
	ReasonUsageLimit     Reason = "usage_limit"
	ReasonPerUserLimit   Reason = "per_user_limit"
	ReasonFirstOrderOnly Reason = "first_order_only"
)

// OfferTerms 优惠规则快照（与存储层解耦，保持定价引擎纯粹）
type OfferTerms struct {
	Type           string // fixed / percent
	Value          decimal.Decimal
	MinAmount      decimal.Decimal
	MaxDiscount    decimal.Decimal // 0 表示不封顶
	UsageLimit     int             // 0 表示不限制
	UsedCount      int
	PerUserLimit   int // 0 表示不限制
	FirstOrderOnly bool
	StartsAt       *time.Time
	EndsAt         *time.Time
	IsActive       bool
}

// EvaluateOffer 计算优惠金额。
// 不可用的优惠返回零金额和原因码，永远不报错；
// 可用时返回的折扣不超过小计本身。
func EvaluateOffer(subtotal decimal.Decimal, terms OfferTerms, userUsageCount int64, hasPriorOrders bool, now time.Time) (decimal.Decimal, Reason) {
	if !terms.IsActive {
		return decimal.Zero, ReasonInactive
	}
	if terms.StartsAt != nil && now.Before(*terms.StartsAt) {
		return decimal.Zero, ReasonNotStarted
	}
	if terms.EndsAt != nil && now.After(*terms.EndsAt) {
		return decimal.Zero, ReasonExpired
	}
	if subtotal.LessThan(terms.MinAmount) {
		return decimal.Zero, ReasonMinAmount
	}
	if terms.UsageLimit > 0 && terms.UsedCount >= terms.UsageLimit {
		return decimal.Zero, ReasonUsageLimit
	}
	if terms.PerUserLimit > 0 && userUsageCount >= int64(terms.PerUserLimit) {
		return decimal.Zero, ReasonPerUserLimit
	}
	if terms.FirstOrderOnly && hasPriorOrders {
		return decimal.Zero, ReasonFirstOrderOnly
	}

	var discount decimal.Decimal
	switch strings.ToLower(strings.TrimSpace(terms.Type)) {
	case "fixed":
		if terms.Value.LessThanOrEqual(decimal.Zero) {
			return decimal.Zero, ReasonInvalid
		}
		discount = terms.Value
	case "percent":
		if terms.Value.LessThanOrEqual(decimal.Zero) {
			return decimal.Zero, ReasonInvalid
		}
		discount = subtotal.Mul(terms.Value).Div(decimal.NewFromInt(100))
		if terms.MaxDiscount.GreaterThan(decimal.Zero) && discount.GreaterThan(terms.MaxDiscount) {
			discount = terms.MaxDiscount
		}
	default:
		return decimal.Zero, ReasonInvalid
	}

	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	return discount.Round(2), ReasonOK
}
