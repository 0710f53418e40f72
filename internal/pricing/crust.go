package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// crustSurcharges 饼底加价表，未列出的饼底不加价。
var crustSurcharges = map[string]decimal.Decimal{
	"classic":      decimal.Zero,
	"thin":         decimal.Zero,
	"stuffed":      decimal.NewFromInt(350),
	"cheese_burst": decimal.NewFromInt(450),
}

// CrustSurcharge 查询饼底加价，未知饼底按 0 处理。
func CrustSurcharge(crust string) decimal.Decimal {
	if amount, ok := crustSurcharges[strings.ToLower(strings.TrimSpace(crust))]; ok {
		return amount
	}
	return decimal.Zero
}
