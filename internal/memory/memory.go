// Package memory keeps the per-session bounded conversation history and
// the student profile signals derived from it.
package memory

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"tutor-rag/internal/models"
)

// maxLastSubjects bounds the recent-subject window in a profile.
const maxLastSubjects = 5

type session struct {
	mu      sync.Mutex
	turns   []models.Turn
	profile models.Profile
}

// Store is the process-wide session state, keyed by session id.
// Sessions are created lazily on first append and removed only by an
// explicit Clear. Appends to one session are serialized by a
// per-session mutex; different sessions never contend.
type Store struct {
	mu         sync.RWMutex
	sessions   map[string]*session
	maxHistory int
	classifier SubjectClassifier
}

func NewStore(maxHistory int, classifier SubjectClassifier) (*Store, error) {
	if maxHistory <= 0 {
		return nil, fmt.Errorf("%w: max history must be > 0, got %d", models.ErrInvalidConfig, maxHistory)
	}
	if classifier == nil {
		classifier = KeywordClassifier{}
	}
	return &Store{
		sessions:   make(map[string]*session),
		maxHistory: maxHistory,
		classifier: classifier,
	}, nil
}

func (s *Store) get(sessionID string) *session {
	s.mu.RLock()
	sess := s.sessions[sessionID]
	s.mu.RUnlock()
	if sess != nil {
		return sess
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess = s.sessions[sessionID]; sess == nil {
		sess = &session{profile: newProfile()}
		s.sessions[sessionID] = sess
	}
	return sess
}

func newProfile() models.Profile {
	return models.Profile{
		SubjectFrequency:     make(map[string]int),
		DifficultyPreference: "medium",
		LearningStyle:        "adaptive",
	}
}

// AppendTurn appends one turn, creating the session if needed, and
// trims the history to maxHistory immediately (oldest dropped first).
func (s *Store) AppendTurn(sessionID string, turn models.Turn) {
	sess := s.get(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	s.append(sess, turn)
}

// AppendExchange appends a user turn and the assistant turn that
// answered it under one lock, so concurrent queries in the same session
// can never interleave their halves.
func (s *Store) AppendExchange(sessionID string, user, assistant models.Turn) {
	sess := s.get(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	s.append(sess, user)
	s.append(sess, assistant)
}

func (s *Store) append(sess *session, turn models.Turn) {
	sess.turns = append(sess.turns, turn)
	if overflow := len(sess.turns) - s.maxHistory; overflow > 0 {
		sess.turns = append([]models.Turn(nil), sess.turns[overflow:]...)
	}
	if turn.Role == models.RoleUser {
		updateProfile(&sess.profile, s.classifier, turn.Text)
	}
}

// updateProfile derives the incremental signals from one user turn:
// subject frequency, recent subjects, and the difficulty / learning
// style hints detected in the wording.
func updateProfile(p *models.Profile, classifier SubjectClassifier, text string) {
	subject := classifier.Classify(text)
	p.SubjectFrequency[subject]++
	p.LastSubjects = append(p.LastSubjects, subject)
	if len(p.LastSubjects) > maxLastSubjects {
		p.LastSubjects = append([]string(nil), p.LastSubjects[len(p.LastSubjects)-maxLastSubjects:]...)
	}

	lower := strings.ToLower(text)
	switch {
	case containsAny(lower, "easy", "simple", "basic"):
		p.DifficultyPreference = "easy"
	case containsAny(lower, "hard", "difficult", "challenging", "advanced"):
		p.DifficultyPreference = "hard"
	}
	switch {
	case containsAny(lower, "example", "show me", "demonstrate"):
		p.LearningStyle = "visual"
	case containsAny(lower, "explain", "why", "how"):
		p.LearningStyle = "analytical"
	case containsAny(lower, "practice", "try", "do"):
		p.LearningStyle = "hands-on"
	}
}

func containsAny(text string, words ...string) bool {
	for _, word := range words {
		if strings.Contains(text, word) {
			return true
		}
	}
	return false
}

// History returns the session's turns, most recent last. Unknown
// sessions yield an empty history.
func (s *Store) History(sessionID string) []models.Turn {
	s.mu.RLock()
	sess := s.sessions[sessionID]
	s.mu.RUnlock()
	if sess == nil {
		return nil
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	out := make([]models.Turn, len(sess.turns))
	copy(out, sess.turns)
	return out
}

// Profile returns a copy of the session's derived profile.
func (s *Store) Profile(sessionID string) models.Profile {
	s.mu.RLock()
	sess := s.sessions[sessionID]
	s.mu.RUnlock()
	if sess == nil {
		return newProfile()
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	out := models.Profile{
		SubjectFrequency:     make(map[string]int, len(sess.profile.SubjectFrequency)),
		LastSubjects:         append([]string(nil), sess.profile.LastSubjects...),
		DifficultyPreference: sess.profile.DifficultyPreference,
		LearningStyle:        sess.profile.LearningStyle,
	}
	for subject, count := range sess.profile.SubjectFrequency {
		out.SubjectFrequency[subject] = count
	}
	return out
}

// Clear removes the session and everything derived from it.
func (s *Store) Clear(sessionID string) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	log.Debug().Str("session", sessionID).Msg("cleared session")
}

func (s *Store) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

type sessionSnapshot struct {
	Turns   []models.Turn  `json:"turns"`
	Profile models.Profile `json:"profile"`
}

// Export serializes all sessions for the persistence collaborator.
// Turn data round-trips losslessly through Import.
func (s *Store) Export() ([]byte, error) {
	s.mu.RLock()
	snapshots := make(map[string]sessionSnapshot, len(s.sessions))
	for id, sess := range s.sessions {
		sess.mu.Lock()
		snapshots[id] = sessionSnapshot{
			Turns:   append([]models.Turn(nil), sess.turns...),
			Profile: sess.profile,
		}
		sess.mu.Unlock()
	}
	s.mu.RUnlock()

	data, err := json.Marshal(snapshots)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize sessions: %w", err)
	}
	return data, nil
}

// Import restores previously exported sessions, replacing any session
// with the same id.
func (s *Store) Import(data []byte) error {
	var snapshots map[string]sessionSnapshot
	if err := json.Unmarshal(data, &snapshots); err != nil {
		return fmt.Errorf("failed to deserialize sessions: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, snapshot := range snapshots {
		profile := snapshot.Profile
		if profile.SubjectFrequency == nil {
			profile = newProfile()
		}
		turns := snapshot.Turns
		if overflow := len(turns) - s.maxHistory; overflow > 0 {
			turns = turns[overflow:]
		}
		s.sessions[id] = &session{
			turns:   append([]models.Turn(nil), turns...),
			profile: profile,
		}
	}
	return nil
}
