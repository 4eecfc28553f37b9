package usage

// Counter kinds tracked per user per day.
const (
	KindEpisode   = "episode"
	KindAICall    = "ai_call"
	KindKeyframe  = "keyframe"
	KindAnimation = "animation"
	KindTimeline  = "timeline"
)

// Unlimited disables the cap for a counter.
const Unlimited = -1

// Plan is the set of daily caps one role is entitled to.
type Plan struct {
	Role       string
	Episodes   int
	AICalls    int
	Keyframes  int
	Animations int
	Timelines  int
}

var plans = map[string]Plan{
	"free": {
		Role:       "free",
		Episodes:   1,
		AICalls:    50,
		Keyframes:  20,
		Animations: 10,
		Timelines:  5,
	},
	"pro": {
		Role:       "pro",
		Episodes:   10,
		AICalls:    500,
		Keyframes:  200,
		Animations: 100,
		Timelines:  50,
	},
	"studio": {
		Role:       "studio",
		Episodes:   50,
		AICalls:    5000,
		Keyframes:  2000,
		Animations: 1000,
		Timelines:  500,
	},
	"unlimited": {
		Role:       "unlimited",
		Episodes:   Unlimited,
		AICalls:    Unlimited,
		Keyframes:  Unlimited,
		Animations: Unlimited,
		Timelines:  Unlimited,
	},
}

// PlanForRole returns the plan for a role, falling back to free for roles
// it does not recognize.
func PlanForRole(role string) Plan {
	if p, ok := plans[role]; ok {
		return p
	}
	return plans["free"]
}

func (p Plan) limit(kind string) int {
	switch kind {
	case KindEpisode:
		return p.Episodes
	case KindAICall:
		return p.AICalls
	case KindKeyframe:
		return p.Keyframes
	case KindAnimation:
		return p.Animations
	case KindTimeline:
		return p.Timelines
	}
	return 0
}

// allow reports whether a user at the given count may perform one more
// action of this kind under the plan.
func allow(p Plan, kind string, current int) bool {
	limit := p.limit(kind)
	if limit == Unlimited {
		return true
	}
	return current < limit
}
