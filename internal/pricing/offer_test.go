package pricing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func activeOffer(typ string, value int64) OfferTerms {
	return OfferTerms{
		Type:     typ,
		Value:    decimal.NewFromInt(value),
		IsActive: true,
	}
}

func TestEvaluateOfferFixed(t *testing.T) {
	terms := activeOffer("fixed", 300)
	discount, reason := EvaluateOffer(decimal.NewFromInt(2000), terms, 0, false, time.Now())
	if reason != ReasonOK {
		t.Fatalf("expected ok, got %q", reason)
	}
	if !discount.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("expected 300, got %s", discount.String())
	}
}

func TestEvaluateOfferPercentCapped(t *testing.T) {
	// 15% of 2000 = 300, capped at 250
	terms := activeOffer("percent", 15)
	terms.MaxDiscount = decimal.NewFromInt(250)
	discount, reason := EvaluateOffer(decimal.NewFromInt(2000), terms, 0, false, time.Now())
	if reason != ReasonOK {
		t.Fatalf("expected ok, got %q", reason)
	}
	if discount.StringFixed(2) != "250.00" {
		t.Fatalf("expected 250.00, got %s", discount.StringFixed(2))
	}
}

func TestEvaluateOfferPercentUncapped(t *testing.T) {
	terms := activeOffer("percent", 15)
	discount, reason := EvaluateOffer(decimal.NewFromInt(2000), terms, 0, false, time.Now())
	if reason != ReasonOK {
		t.Fatalf("expected ok, got %q", reason)
	}
	if discount.StringFixed(2) != "300.00" {
		t.Fatalf("expected 300.00, got %s", discount.StringFixed(2))
	}
}

func TestEvaluateOfferNeverExceedsSubtotal(t *testing.T) {
	terms := activeOffer("fixed", 5000)
	discount, reason := EvaluateOffer(decimal.NewFromInt(800), terms, 0, false, time.Now())
	if reason != ReasonOK {
		t.Fatalf("expected ok, got %q", reason)
	}
	if !discount.Equal(decimal.NewFromInt(800)) {
		t.Fatalf("discount exceeds subtotal: %s", discount.String())
	}
}

func TestEvaluateOfferInactive(t *testing.T) {
	terms := activeOffer("fixed", 100)
	terms.IsActive = false
	discount, reason := EvaluateOffer(decimal.NewFromInt(1000), terms, 0, false, time.Now())
	if reason != ReasonInactive {
		t.Fatalf("expected inactive, got %q", reason)
	}
	if !discount.IsZero() {
		t.Fatalf("expected zero discount, got %s", discount.String())
	}
}

func TestEvaluateOfferWindow(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	notStarted := activeOffer("fixed", 100)
	notStarted.StartsAt = &future
	if _, reason := EvaluateOffer(decimal.NewFromInt(1000), notStarted, 0, false, now); reason != ReasonNotStarted {
		t.Fatalf("expected not_started, got %q", reason)
	}

	expired := activeOffer("fixed", 100)
	expired.EndsAt = &past
	if _, reason := EvaluateOffer(decimal.NewFromInt(1000), expired, 0, false, now); reason != ReasonExpired {
		t.Fatalf("expected expired, got %q", reason)
	}
}

func TestEvaluateOfferMinAmount(t *testing.T) {
	terms := activeOffer("fixed", 100)
	terms.MinAmount = decimal.NewFromInt(1500)
	if _, reason := EvaluateOffer(decimal.NewFromInt(1000), terms, 0, false, time.Now()); reason != ReasonMinAmount {
		t.Fatalf("expected min_amount, got %q", reason)
	}
	// 刚好达到门槛
	if _, reason := EvaluateOffer(decimal.NewFromInt(1500), terms, 0, false, time.Now()); reason != ReasonOK {
		t.Fatalf("expected ok at threshold, got %q", reason)
	}
}

func TestEvaluateOfferUsageLimits(t *testing.T) {
	capped := activeOffer("fixed", 100)
	capped.UsageLimit = 5
	capped.UsedCount = 5
	if _, reason := EvaluateOffer(decimal.NewFromInt(1000), capped, 0, false, time.Now()); reason != ReasonUsageLimit {
		t.Fatalf("expected usage_limit, got %q", reason)
	}

	perUser := activeOffer("fixed", 100)
	perUser.PerUserLimit = 2
	if _, reason := EvaluateOffer(decimal.NewFromInt(1000), perUser, 2, false, time.Now()); reason != ReasonPerUserLimit {
		t.Fatalf("expected per_user_limit, got %q", reason)
	}

	firstOnly := activeOffer("fixed", 100)
	firstOnly.FirstOrderOnly = true
	if _, reason := EvaluateOffer(decimal.NewFromInt(1000), firstOnly, 0, true, time.Now()); reason != ReasonFirstOrderOnly {
		t.Fatalf("expected first_order_only, got %q", reason)
	}
	if _, reason := EvaluateOffer(decimal.NewFromInt(1000), firstOnly, 0, false, time.Now()); reason != ReasonOK {
		t.Fatalf("expected ok for first order, got %q", reason)
	}
}

func TestEvaluateOfferUnknownType(t *testing.T) {
	terms := activeOffer("bogo", 1)
	if _, reason := EvaluateOffer(decimal.NewFromInt(1000), terms, 0, false, time.Now()); reason != ReasonInvalid {
		t.Fatalf("expected invalid, got %q", reason)
	}
}
