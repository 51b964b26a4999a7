package progression

import (
	"sort"
	"strings"

	domainagg "github.com/yungbote/learnquest-backend/internal/domain/aggregates"
	types "github.com/yungbote/learnquest-backend/internal/domain/progression"
)

// Predicate is a pure test over a stats snapshot.
type Predicate func(snap domainagg.StatsSnapshot) bool

// PredicateFactory compiles a catalog rule into a Predicate.
type PredicateFactory func(rule RuleSpec) (Predicate, error)

// PredicateRegistry resolves catalog predicate names.
type PredicateRegistry struct {
	factories map[string]PredicateFactory
}

func NewPredicateRegistry() *PredicateRegistry {
	return &PredicateRegistry{factories: map[string]PredicateFactory{}}
}

func (r *PredicateRegistry) Register(name string, f PredicateFactory) {
	r.factories[strings.TrimSpace(name)] = f
}

func (r *PredicateRegistry) Names() []string {
	out := make([]string, 0, len(r.factories))
	for name := range r.factories {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (r *PredicateRegistry) Compile(rule RuleSpec) (Predicate, error) {
	name := strings.TrimSpace(rule.Predicate)
	f, ok := r.factories[name]
	if !ok {
		return nil, configErr("unknown predicate %q", name)
	}
	return f(rule)
}

// DefaultPredicates returns the built-in predicate set.
func DefaultPredicates() *PredicateRegistry {
	r := NewPredicateRegistry()
	r.Register("total_xp_at_least", intAtLeast(func(s domainagg.StatsSnapshot) int { return s.TotalXP }))
	r.Register("level_at_least", intAtLeast(func(s domainagg.StatsSnapshot) int { return s.Level }))
	r.Register("streak_at_least", intAtLeast(func(s domainagg.StatsSnapshot) int { return s.CurrentStreak }))
	r.Register("max_streak_at_least", intAtLeast(func(s domainagg.StatsSnapshot) int { return s.MaxStreak }))
	r.Register("learning_streak_at_least", intAtLeast(func(s domainagg.StatsSnapshot) int { return s.LearningStreak }))
	r.Register("quizzes_completed_at_least", intAtLeast(func(s domainagg.StatsSnapshot) int { return s.QuizzesCompleted }))
	r.Register("perfect_scores_at_least", intAtLeast(func(s domainagg.StatsSnapshot) int { return s.PerfectScores }))
	r.Register("average_score_at_least", averageScoreAtLeast)
	r.Register("content_completed_at_least", contentCompletedAtLeast)
	return r
}

func requireThreshold(rule RuleSpec) (float64, error) {
	if rule.Threshold == nil {
		return 0, configErr("predicate %q requires a threshold", rule.Predicate)
	}
	if *rule.Threshold < 0 {
		return 0, configErr("predicate %q threshold must be >= 0", rule.Predicate)
	}
	return *rule.Threshold, nil
}

func intAtLeast(field func(domainagg.StatsSnapshot) int) PredicateFactory {
	return func(rule RuleSpec) (Predicate, error) {
		th, err := requireThreshold(rule)
		if err != nil {
			return nil, err
		}
		return func(s domainagg.StatsSnapshot) bool {
			return float64(field(s)) >= th
		}, nil
	}
}

// averageScoreAtLeast needs at least min_quizzes completions (default 1) so one lucky quiz can't qualify.
func averageScoreAtLeast(rule RuleSpec) (Predicate, error) {
	th, err := requireThreshold(rule)
	if err != nil {
		return nil, err
	}
	if th > 100 {
		return nil, configErr("predicate %q threshold must be <= 100", rule.Predicate)
	}
	if rule.MinQuizzes < 0 {
		return nil, configErr("predicate %q min_quizzes must be >= 0", rule.Predicate)
	}
	minQuizzes := rule.MinQuizzes
	if minQuizzes == 0 {
		minQuizzes = 1
	}
	return func(s domainagg.StatsSnapshot) bool {
		return s.QuizzesCompleted >= minQuizzes && s.AverageQuizScore >= th
	}, nil
}

func contentCompletedAtLeast(rule RuleSpec) (Predicate, error) {
	th, err := requireThreshold(rule)
	if err != nil {
		return nil, err
	}
	ct := strings.ToLower(strings.TrimSpace(rule.ContentType))
	if !types.IsKnownContentType(ct) {
		return nil, configErr("predicate %q requires a known content_type, got %q", rule.Predicate, rule.ContentType)
	}
	return func(s domainagg.StatsSnapshot) bool {
		return float64(s.CompletedByType[ct]) >= th
	}, nil
}
