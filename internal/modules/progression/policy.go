package progression

import (
	"sort"
	"strings"

	types "github.com/yungbote/learnquest-backend/internal/domain/progression"
)

const (
	VariantTimedQuiz       = "timed_quiz"
	VariantDailyChallenge  = "daily_challenge"
	VariantPracticeQuiz    = "practice_quiz"
	VariantFlashcardReview = "flashcard_review"
	VariantSectionComplete = "section_complete"
	VariantMediaWatch      = "media_watch"
)

// CapKind limits how often a variant can pay XP.
type CapKind string

const (
	CapNone           CapKind = "none"
	CapDaily          CapKind = "daily"
	CapOncePerContent CapKind = "once_per_content"
)

// VariantPolicy describes how completions of one activity variant are paid and recorded.
type VariantPolicy struct {
	Name         string
	ContentTypes []string

	// Scored variants are paid by the performance bonus table; the rest pay FlatXP.
	Scored bool
	FlatXP int

	Cap CapKind

	// AttemptTracked variants append one record per submission.
	AttemptTracked bool
}

func (p VariantPolicy) allows(contentType string) bool {
	for _, ct := range p.ContentTypes {
		if ct == contentType {
			return true
		}
	}
	return false
}

// ActivityXP returns the XP a fresh completion earns and the bonus part of it.
func (p VariantPolicy) ActivityXP(score float64) (xp int, bonus int) {
	if !p.Scored {
		return p.FlatXP, 0
	}
	return types.ComputeXP(score), types.PerformanceBonus(score)
}

// PolicyRegistry maps variant names to policies, with a default variant per content type.
type PolicyRegistry struct {
	byName   map[string]VariantPolicy
	defaults map[string]string
}

func NewPolicyRegistry() *PolicyRegistry {
	return &PolicyRegistry{
		byName:   map[string]VariantPolicy{},
		defaults: map[string]string{},
	}
}

// DefaultPolicies returns the built-in variant table.
func DefaultPolicies() *PolicyRegistry {
	r := NewPolicyRegistry()
	quiz := []string{types.ContentQuiz}
	r.Register(VariantPolicy{Name: VariantTimedQuiz, ContentTypes: quiz, Scored: true, Cap: CapDaily, AttemptTracked: true})
	r.Register(VariantPolicy{Name: VariantDailyChallenge, ContentTypes: quiz, Scored: true, Cap: CapDaily, AttemptTracked: true})
	r.Register(VariantPolicy{Name: VariantPracticeQuiz, ContentTypes: quiz, Scored: true, Cap: CapNone, AttemptTracked: true})
	r.Register(VariantPolicy{Name: VariantFlashcardReview, ContentTypes: []string{types.ContentFlashcard}, FlatXP: 5, Cap: CapDaily, AttemptTracked: true})
	r.Register(VariantPolicy{Name: VariantSectionComplete, ContentTypes: []string{types.ContentSection, types.ContentTopic}, FlatXP: types.BaseActivityXP, Cap: CapOncePerContent})
	r.Register(VariantPolicy{Name: VariantMediaWatch, ContentTypes: []string{types.ContentMedia}, FlatXP: 5, Cap: CapOncePerContent})

	r.SetDefault(types.ContentQuiz, VariantPracticeQuiz)
	r.SetDefault(types.ContentFlashcard, VariantFlashcardReview)
	r.SetDefault(types.ContentSection, VariantSectionComplete)
	r.SetDefault(types.ContentTopic, VariantSectionComplete)
	r.SetDefault(types.ContentMedia, VariantMediaWatch)
	return r
}

func (r *PolicyRegistry) Register(p VariantPolicy) {
	r.byName[p.Name] = p
}

func (r *PolicyRegistry) SetDefault(contentType, variant string) {
	r.defaults[contentType] = variant
}

func (r *PolicyRegistry) Names() []string {
	out := make([]string, 0, len(r.byName))
	for name := range r.byName {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Resolve picks the policy for a completion. An empty variant selects the content type's default.
func (r *PolicyRegistry) Resolve(contentType, variant string) (VariantPolicy, error) {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	variant = strings.ToLower(strings.TrimSpace(variant))
	if !types.IsKnownContentType(contentType) {
		return VariantPolicy{}, validationErr("invalid_content_type", "unknown content_type %q", contentType)
	}
	if variant == "" {
		def, ok := r.defaults[contentType]
		if !ok {
			return VariantPolicy{}, validationErr("invalid_activity_variant", "no default activity_variant for content_type %q", contentType)
		}
		variant = def
	}
	p, ok := r.byName[variant]
	if !ok {
		return VariantPolicy{}, validationErr("invalid_activity_variant", "unknown activity_variant %q", variant)
	}
	if !p.allows(contentType) {
		return VariantPolicy{}, validationErr("invalid_activity_variant", "activity_variant %q does not apply to content_type %q", variant, contentType)
	}
	return p, nil
}
