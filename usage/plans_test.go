package usage

import (
	"testing"

	"github.com/adi29tyax/omniai-hub-backend/models"
)

func newZeroUsage() *models.UserUsage {
	return &models.UserUsage{UserID: "u"}
}

func TestPlanForRoleFallsBackToFree(t *testing.T) {
	if got := PlanForRole("enterprise-trial"); got.Role != "free" {
		t.Errorf("role = %q", got.Role)
	}
	if got := PlanForRole("pro"); got.Role != "pro" {
		t.Errorf("role = %q", got.Role)
	}
}

func TestAllowEnforcesCaps(t *testing.T) {
	free := PlanForRole("free")

	if !allow(free, KindEpisode, 0) {
		t.Error("first episode should be allowed")
	}
	if allow(free, KindEpisode, free.Episodes) {
		t.Error("episode past the cap should be denied")
	}
	if !allow(free, KindAICall, free.AICalls-1) {
		t.Error("last AI call under the cap should be allowed")
	}
	if allow(free, KindAICall, free.AICalls) {
		t.Error("AI call at the cap should be denied")
	}
}

func TestAllowUnlimitedRole(t *testing.T) {
	p := PlanForRole("unlimited")
	for _, kind := range []string{KindEpisode, KindAICall, KindKeyframe, KindAnimation, KindTimeline} {
		if !allow(p, kind, 1_000_000) {
			t.Errorf("unlimited plan denied %s", kind)
		}
	}
}

func TestAllowUnknownKindDenied(t *testing.T) {
	if allow(PlanForRole("studio"), "teleport", 0) {
		t.Error("unknown counter kind should be denied")
	}
}

func TestCounterHelpersCoverAllKinds(t *testing.T) {
	kinds := []string{KindEpisode, KindAICall, KindKeyframe, KindAnimation, KindTimeline}
	for _, kind := range kinds {
		var u = newZeroUsage()
		bump(u, kind)
		if counterFor(u, kind) != 1 {
			t.Errorf("counter for %s not incremented", kind)
		}
		for _, other := range kinds {
			if other != kind && counterFor(u, other) != 0 {
				t.Errorf("bump(%s) leaked into %s", kind, other)
			}
		}
	}
}
