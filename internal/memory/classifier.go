package memory

import (
	"strings"

	"tutor-rag/internal/models"
)

// SubjectClassifier labels a user turn with a curriculum subject. The
// store treats it as an external collaborator; any implementation must
// be deterministic for profile derivation to be reproducible.
type SubjectClassifier interface {
	Classify(text string) string
}

// KeywordClassifier is the default classifier: first subject whose
// keyword list matches the lowercased text wins, in a fixed order.
type KeywordClassifier struct{}

var subjectKeywords = []struct {
	subject  string
	keywords []string
}{
	{"mathematics", []string{"math", "algebra", "geometry", "calculus", "equation", "solve", "calculate"}},
	{"science", []string{"science", "physics", "chemistry", "biology", "experiment", "theory", "newton"}},
	{"english", []string{"english", "literature", "writing", "grammar", "essay", "reading"}},
	{"history", []string{"history", "historical", "ancient", "civilization"}},
	{"computer", []string{"computer", "programming", "code", "algorithm", "software"}},
}

func (KeywordClassifier) Classify(text string) string {
	lower := strings.ToLower(text)
	for _, entry := range subjectKeywords {
		for _, keyword := range entry.keywords {
			if strings.Contains(lower, keyword) {
				return entry.subject
			}
		}
	}
	return models.SubjectGeneral
}
