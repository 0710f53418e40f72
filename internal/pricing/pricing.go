// Package pricing 实现订单定价与优惠计算。
// 所有函数均为纯函数：同样的输入永远得到同样的输出，不访问外部状态。
package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FreeAddOnAllowance 免费加料额度：按选择顺序前 3 份加料不收费
const FreeAddOnAllowance = 3

// 尺寸价格乘数
var sizeMultipliers = map[string]decimal.Decimal{
	"small":  decimal.NewFromInt(1),
	"medium": decimal.NewFromFloat(1.2),
	"large":  decimal.NewFromFloat(1.4),
}

// defaultAddOnPrice 未标价加料的兜底单价
var defaultAddOnPrice = decimal.NewFromInt(100)

// AddOn 加料定价输入（按选择顺序传入）
type AddOn struct {
	Name  string
	Price decimal.Decimal // 0 表示未标价，收费时按兜底单价计
}

// ComputeLinePrice 计算单个订单项的单价：
// 基础价 × 尺寸乘数 + 饼底加价 + 超出免费额度的加料。
// 结果四舍五入保留 2 位小数，恒为非负。
func ComputeLinePrice(basePrice decimal.Decimal, size string, crustSurcharge decimal.Decimal, addOns []AddOn) decimal.Decimal {
	price := basePrice.Mul(sizeMultiplier(size))

	if crustSurcharge.GreaterThan(decimal.Zero) {
		price = price.Add(crustSurcharge)
	}

	for i, addOn := range addOns {
		if i < FreeAddOnAllowance {
			continue
		}
		charge := addOn.Price
		if charge.LessThanOrEqual(decimal.Zero) {
			charge = defaultAddOnPrice
		}
		price = price.Add(charge)
	}

	price = price.Round(2)
	if price.IsNegative() {
		return decimal.Zero
	}
	return price
}

// ChargeableAddOnCount 返回收费加料数量
func ChargeableAddOnCount(addOns []AddOn) int {
	if len(addOns) <= FreeAddOnAllowance {
		return 0
	}
	return len(addOns) - FreeAddOnAllowance
}

func sizeMultiplier(size string) decimal.Decimal {
	if m, ok := sizeMultipliers[strings.ToLower(strings.TrimSpace(size))]; ok {
		return m
	}
	return decimal.NewFromInt(1)
}

// ValidSize 判断尺寸是否合法
func ValidSize(size string) bool {
	_, ok := sizeMultipliers[strings.ToLower(strings.TrimSpace(size))]
	return ok
}
