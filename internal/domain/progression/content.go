package progression

const (
	ContentSection   = "section"
	ContentTopic     = "topic"
	ContentQuiz      = "quiz"
	ContentFlashcard = "flashcard"
	ContentMedia     = "media"
)

// IsKnownContentType reports whether t is a content type the engine accepts.
func IsKnownContentType(t string) bool {
	switch t {
	case ContentSection, ContentTopic, ContentQuiz, ContentFlashcard, ContentMedia:
		return true
	}
	return false
}

// StreakClassFor returns the narrowest streak class a content type advances.
// Every class also advances the StreakAny counter.
func StreakClassFor(contentType string) StreakClass {
	switch contentType {
	case ContentSection, ContentTopic, ContentFlashcard, ContentMedia:
		return StreakLearning
	default:
		return StreakAny
	}
}
