package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/pawquest-backend/internal/domain"
)

var ErrSessionNotFound = errors.New("session not found")

// Session is the live play state for one player on one path. The UsedIDs
// slice is the session's UsedIdSet: ids already answered, owned here and
// passed into the pool manager on every draw.
type Session struct {
	ID          uuid.UUID `json:"id"`
	PathSlug    string    `json:"path_slug"`
	PlayerLevel int       `json:"player_level"`
	Locale      string    `json:"locale"`

	Lives             int    `json:"lives"`
	Streak            int    `json:"streak"`
	RecentResults     []bool `json:"recent_results"`
	QuestionsAnswered int    `json:"questions_answered"`
	CorrectAnswers    int    `json:"correct_answers"`
	CheckpointLevel   int    `json:"checkpoint_level"` // 0 = none reached

	UsedIDs   []string                   `json:"used_ids"`
	Inventory map[domain.PowerUpKind]int `json:"inventory"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RecentMistakes counts wrong answers in the sliding result window.
func (s *Session) RecentMistakes() int {
	n := 0
	for _, correct := range s.RecentResults {
		if !correct {
			n++
		}
	}
	return n
}

func (s *Session) Accuracy() float64 {
	if s.QuestionsAnswered == 0 {
		return 0
	}
	return float64(s.CorrectAnswers) / float64(s.QuestionsAnswered)
}

// clone deep-copies the session. The store hands clones across the API so a
// caller's mutation never reaches the stored row (or another caller's copy)
// before the next Put; handlers run concurrently, so sharing the Inventory
// map would race.
func (s *Session) clone() *Session {
	cp := *s
	if s.RecentResults != nil {
		cp.RecentResults = append([]bool(nil), s.RecentResults...)
	}
	if s.UsedIDs != nil {
		cp.UsedIDs = append([]string(nil), s.UsedIDs...)
	}
	if s.Inventory != nil {
		cp.Inventory = make(map[domain.PowerUpKind]int, len(s.Inventory))
		for kind, n := range s.Inventory {
			cp.Inventory[kind] = n
		}
	}
	return &cp
}

// SessionStore holds live sessions. The in-memory store is the default; a
// redis-backed one is selected by env when the game runs multi-instance.
type SessionStore interface {
	Get(ctx context.Context, id uuid.UUID) (*Session, error)
	Put(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type memorySessionStore struct {
	ttl time.Duration

	mu   sync.Mutex
	rows map[uuid.UUID]*Session
}

func NewMemorySessionStore(ttl time.Duration) SessionStore {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &memorySessionStore{ttl: ttl, rows: make(map[uuid.UUID]*Session)}
}

func (st *memorySessionStore) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.purgeLocked()
	s, ok := st.rows[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s.clone(), nil
}

func (st *memorySessionStore) Put(ctx context.Context, s *Session) error {
	if s == nil || s.ID == uuid.Nil {
		return errors.New("session requires an id")
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	st.purgeLocked()
	s.UpdatedAt = time.Now().UTC()
	st.rows[s.ID] = s.clone()
	return nil
}

func (st *memorySessionStore) Delete(ctx context.Context, id uuid.UUID) error {
	st.mu.Lock()
	delete(st.rows, id)
	st.mu.Unlock()
	return nil
}

// purgeLocked drops sessions idle longer than the ttl.
func (st *memorySessionStore) purgeLocked() {
	cutoff := time.Now().UTC().Add(-st.ttl)
	for id, s := range st.rows {
		if s.UpdatedAt.Before(cutoff) {
			delete(st.rows, id)
		}
	}
}
