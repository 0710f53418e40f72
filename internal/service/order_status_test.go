package service

import (
	"testing"

	"github.com/cheezy-bite/internal/constants"
)

func TestCanTransitionStrictAdvance(t *testing.T) {
	for stage := constants.StagePlaced; stage < constants.StageDelivered; stage++ {
		if !CanTransition(stage, stage+1, false) {
			t.Fatalf("expected %d -> %d to be allowed", stage, stage+1)
		}
	}
	if CanTransition(constants.StagePlaced, constants.StageOutForDelivery, false) {
		t.Fatalf("expected stage skip to be rejected without override")
	}
	if CanTransition(constants.StageBaking, constants.StagePlaced, false) {
		t.Fatalf("expected backwards transition to be rejected")
	}
}

func TestCanTransitionSameStageIdempotent(t *testing.T) {
	for stage := constants.StageCancelled; stage <= constants.StageDelivered; stage++ {
		if !CanTransition(stage, stage, false) {
			t.Fatalf("expected same-stage %d to be idempotent", stage)
		}
	}
}

func TestCanTransitionCancelOnlyFromPlaced(t *testing.T) {
	if !CanTransition(constants.StagePlaced, constants.StageCancelled, false) {
		t.Fatalf("expected cancel from placed to be allowed")
	}
	for stage := constants.StagePreparing; stage <= constants.StageDelivered; stage++ {
		if CanTransition(stage, constants.StageCancelled, false) {
			t.Fatalf("expected cancel from stage %d to be rejected", stage)
		}
		if CanTransition(stage, constants.StageCancelled, true) {
			t.Fatalf("expected cancel from stage %d to be rejected even with override", stage)
		}
	}
}

func TestCanTransitionStaffOverride(t *testing.T) {
	if !CanTransition(constants.StagePlaced, constants.StageOutForDelivery, true) {
		t.Fatalf("expected override jump to out-for-delivery to be allowed")
	}
	if CanTransition(constants.StagePlaced, constants.StageDelivered, true) {
		t.Fatalf("expected override jump straight to delivered to be rejected")
	}
	// 正常单步推进到送达不受 override 限制
	if !CanTransition(constants.StageOutForDelivery, constants.StageDelivered, true) {
		t.Fatalf("expected single-step advance to delivered to be allowed")
	}
	if CanTransition(constants.StageOutForDelivery, constants.StageBaking, true) {
		t.Fatalf("expected override backwards move to be rejected")
	}
}

func TestCanTransitionTerminalStagesLocked(t *testing.T) {
	for _, terminal := range []int{constants.StageCancelled, constants.StageDelivered} {
		for target := constants.StageCancelled; target <= constants.StageDelivered; target++ {
			if target == terminal {
				continue
			}
			if CanTransition(terminal, target, true) {
				t.Fatalf("expected terminal stage %d -> %d to be rejected", terminal, target)
			}
		}
	}
}

func TestCanTransitionRejectsUnknownStages(t *testing.T) {
	if CanTransition(constants.StagePlaced, 5, true) {
		t.Fatalf("expected out-of-range target to be rejected")
	}
	if CanTransition(-2, constants.StagePlaced, false) {
		t.Fatalf("expected out-of-range current to be rejected")
	}
}
