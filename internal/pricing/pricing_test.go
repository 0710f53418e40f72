package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
)

func addOns(prices ...int64) []AddOn {
	result := make([]AddOn, 0, len(prices))
	for _, p := range prices {
		result = append(result, AddOn{Name: "topping", Price: decimal.NewFromInt(p)})
	}
	return result
}

func TestComputeLinePriceSizeMultipliers(t *testing.T) {
	base := decimal.NewFromInt(1000)
	cases := []struct {
		size string
		want string
	}{
		{"small", "1000"},
		{"medium", "1200"},
		{"large", "1400"},
		{"SMALL", "1000"},
		{" Large ", "1400"},
	}
	for _, c := range cases {
		got := ComputeLinePrice(base, c.size, decimal.Zero, nil)
		if !got.Equal(decimal.RequireFromString(c.want)) {
			t.Fatalf("size %q: expected %s, got %s", c.size, c.want, got.String())
		}
	}
}

func TestComputeLinePriceMediumStuffedWithToppings(t *testing.T) {
	// base 1200, medium ×1.2 = 1440, stuffed +350 = 1790,
	// 5 加料，其中 2 份收费（各 150）⇒ 2090.00
	got := ComputeLinePrice(
		decimal.NewFromInt(1200),
		"medium",
		decimal.NewFromInt(350),
		addOns(150, 150, 150, 150, 150),
	)
	if got.StringFixed(2) != "2090.00" {
		t.Fatalf("expected 2090.00, got %s", got.StringFixed(2))
	}
}

func TestComputeLinePriceFreeAllowance(t *testing.T) {
	base := decimal.NewFromInt(1000)
	// 前三份加料永远免费
	for n := 0; n <= FreeAddOnAllowance; n++ {
		got := ComputeLinePrice(base, "small", decimal.Zero, addOns(make([]int64, n)...))
		if !got.Equal(base) {
			t.Fatalf("%d add-ons: expected base price unchanged, got %s", n, got.String())
		}
	}
	// 第四份起按自身标价收费
	withFour := ComputeLinePrice(base, "small", decimal.Zero, addOns(0, 0, 0, 120))
	if !withFour.Equal(decimal.NewFromInt(1120)) {
		t.Fatalf("expected 1120, got %s", withFour.String())
	}
}

func TestComputeLinePriceUnpricedAddOnFallsBack(t *testing.T) {
	base := decimal.NewFromInt(500)
	got := ComputeLinePrice(base, "small", decimal.Zero, addOns(0, 0, 0, 0))
	want := base.Add(defaultAddOnPrice)
	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want.String(), got.String())
	}
}

func TestComputeLinePriceChargeableStrictlyIncreases(t *testing.T) {
	base := decimal.NewFromInt(800)
	prev := ComputeLinePrice(base, "large", decimal.NewFromInt(200), addOns(50, 50, 50))
	for extra := 1; extra <= 4; extra++ {
		prices := make([]int64, 3+extra)
		for i := range prices {
			prices[i] = 50
		}
		cur := ComputeLinePrice(base, "large", decimal.NewFromInt(200), addOns(prices...))
		if !cur.Sub(prev).Equal(decimal.NewFromInt(50)) {
			t.Fatalf("extra add-on %d: expected +50, got %s -> %s", extra, prev.String(), cur.String())
		}
		prev = cur
	}
}

func TestComputeLinePriceDeterministicNonNegative(t *testing.T) {
	a := ComputeLinePrice(decimal.NewFromFloat(999.99), "medium", decimal.NewFromInt(150), addOns(10, 20, 30, 40))
	b := ComputeLinePrice(decimal.NewFromFloat(999.99), "medium", decimal.NewFromInt(150), addOns(10, 20, 30, 40))
	if !a.Equal(b) {
		t.Fatalf("not deterministic: %s vs %s", a.String(), b.String())
	}
	if a.IsNegative() {
		t.Fatalf("negative price: %s", a.String())
	}
	zero := ComputeLinePrice(decimal.Zero, "small", decimal.Zero, nil)
	if zero.IsNegative() {
		t.Fatalf("negative price for zero base: %s", zero.String())
	}
}

func TestComputeLinePriceRoundsHalfUp(t *testing.T) {
	// 1000.005 -> 1000.01
	got := ComputeLinePrice(decimal.RequireFromString("1000.005"), "small", decimal.Zero, nil)
	if got.StringFixed(2) != "1000.01" {
		t.Fatalf("expected 1000.01, got %s", got.StringFixed(2))
	}
}

func TestChargeableAddOnCount(t *testing.T) {
	if n := ChargeableAddOnCount(addOns(1, 2)); n != 0 {
		t.Fatalf("expected 0, got %d", n)
	}
	if n := ChargeableAddOnCount(addOns(1, 2, 3, 4, 5)); n != 2 {
		t.Fatalf("expected 2, got %d", n)
	}
}

func TestValidSize(t *testing.T) {
	if !ValidSize("medium") || ValidSize("extra-large") {
		t.Fatalf("unexpected size validation result")
	}
}
