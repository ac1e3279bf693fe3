package rag

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
	"github.com/rs/zerolog/log"

	"tutor-rag/internal/models"
)

// tokenCounter measures text against the context budget. It uses the
// cl100k_base BPE when the encoding is available and falls back to a
// chars/4 estimate offline.
type tokenCounter struct {
	enc *tiktoken.Tiktoken
}

func newTokenCounter() *tokenCounter {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		log.Debug().Err(err).Msg("tiktoken encoding unavailable, estimating tokens by length")
		return &tokenCounter{}
	}
	return &tokenCounter{enc: enc}
}

func (c *tokenCounter) Count(text string) int {
	if c.enc == nil {
		return len(text)/4 + 1
	}
	return len(c.enc.Encode(text, nil, nil))
}

// promptBuilder assembles the single generation prompt. Ordering is
// fixed: persona, student context, conversation history, retrieved
// passages (most relevant first), question. Assembly is deterministic
// for a given input.
type promptBuilder struct {
	budget  int
	counter *tokenCounter
}

func newPromptBuilder(budget int) *promptBuilder {
	return &promptBuilder{budget: budget, counter: newTokenCounter()}
}

func (b *promptBuilder) Build(profile models.Profile, history []models.Turn, passages []models.RetrievalResult, question string) string {
	var sb strings.Builder
	sb.WriteString(models.PersonaPreamble)
	sb.WriteString("\n\n")
	sb.WriteString(profileSummary(profile))

	if block := b.historyBlock(history); block != "" {
		sb.WriteString("\n\nPREVIOUS CONVERSATION:\n")
		sb.WriteString(block)
	}

	if len(passages) > 0 {
		sb.WriteString("\n\nRELEVANT CURRICULUM CONTENT:\n")
		for i, passage := range passages {
			if i > 0 {
				sb.WriteString(models.ContextSeparator)
			}
			fmt.Fprintf(&sb, "[Source %d: %s]\n%s", i+1, passage.Chunk.Title, passage.Chunk.Text)
		}
	} else {
		sb.WriteString("\n\nRELEVANT CURRICULUM CONTENT:\n(none found - acknowledge the limitation)")
	}

	sb.WriteString("\n\nCURRENT QUESTION: ")
	sb.WriteString(question)
	sb.WriteString("\n\nRespond as Riya would - warm, educational, and focused on the student's learning journey:")
	return sb.String()
}

func profileSummary(profile models.Profile) string {
	parts := []string{
		"STUDENT CONTEXT:",
		"Learning style: " + profile.LearningStyle,
		"Preferred difficulty: " + profile.DifficultyPreference,
	}
	if subjects := dedup(profile.LastSubjects); len(subjects) > 0 {
		parts = append(parts, "Recent subjects: "+strings.Join(subjects, ", "))
	}
	return strings.Join(parts, " | ")
}

// historyBlock keeps as many of the most recent turns as fit the token
// budget, rendered oldest first.
func (b *promptBuilder) historyBlock(history []models.Turn) string {
	var kept []string
	used := 0
	for i := len(history) - 1; i >= 0; i-- {
		line := turnLabel(history[i].Role) + ": " + history[i].Text
		cost := b.counter.Count(line)
		if used+cost > b.budget {
			break
		}
		used += cost
		kept = append(kept, line)
	}
	// kept is newest-first; reverse into chronological order.
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}
	return strings.Join(kept, "\n")
}

func turnLabel(role models.Role) string {
	if role == models.RoleAssistant {
		return "Tutor"
	}
	return "Student"
}

func dedup(values []string) []string {
	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
