package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/pawquest-backend/internal/data/repos"
	"github.com/yungbote/pawquest-backend/internal/domain"
	"github.com/yungbote/pawquest-backend/internal/engine"
	"github.com/yungbote/pawquest-backend/internal/pkg/logger"
	"github.com/yungbote/pawquest-backend/internal/platform/apierr"
)

type SessionConfig struct {
	MaxLives     int
	RecentWindow int
	MaxBatchSize int
}

// SessionService orchestrates the engine for live play: drawing batches,
// grading answers, crossing checkpoints, and recovering from game over. The
// durable PathProgress row is written on every mutation so the engine core
// itself never touches storage.
type SessionService struct {
	log      *logger.Logger
	store    SessionStore
	pool     *engine.PoolManager
	selector *engine.DifficultySelector
	fallback *engine.FallbackController
	rewards  engine.RewardCalculator
	paths    []engine.Path
	progress repos.PathProgressRepo
	cfg      SessionConfig
}

func NewSessionService(
	log *logger.Logger,
	store SessionStore,
	pool *engine.PoolManager,
	selector *engine.DifficultySelector,
	fallback *engine.FallbackController,
	rewards engine.RewardCalculator,
	paths []engine.Path,
	progress repos.PathProgressRepo,
	cfg SessionConfig,
) *SessionService {
	if cfg.MaxLives <= 0 {
		cfg.MaxLives = 3
	}
	if cfg.RecentWindow <= 0 {
		cfg.RecentWindow = 5
	}
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = 20
	}
	return &SessionService{
		log:      log.With("service", "SessionService"),
		store:    store,
		pool:     pool,
		selector: selector,
		fallback: fallback,
		rewards:  rewards,
		paths:    paths,
		progress: progress,
		cfg:      cfg,
	}
}

func (s *SessionService) Paths() []engine.Path { return s.paths }

func (s *SessionService) Start(ctx context.Context, pathSlug string, playerLevel int, locale string) (*Session, error) {
	path, ok := engine.PathBySlug(s.paths, pathSlug)
	if !ok {
		return nil, apierr.New(http.StatusBadRequest, "unknown_path", fmt.Errorf("unknown path %q", pathSlug))
	}
	if playerLevel < 1 || playerLevel > 5 {
		return nil, apierr.New(http.StatusBadRequest, "invalid_player_level", fmt.Errorf("player level %d out of range", playerLevel))
	}
	locale = strings.TrimSpace(locale)
	if locale == "" {
		locale = domain.FallbackLocale
	}

	now := time.Now().UTC()
	session := &Session{
		ID:          uuid.New(),
		PathSlug:    path.Slug,
		PlayerLevel: playerLevel,
		Locale:      locale,
		Lives:       s.cfg.MaxLives,
		Inventory:   map[domain.PowerUpKind]int{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.pool.Reset(path, nil); err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "pool_reset_failed", err)
	}
	if err := s.store.Put(ctx, session); err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "session_store_failed", err)
	}
	if err := s.persistProgress(ctx, session); err != nil {
		s.log.Warn("progress persist failed on start", "session_id", session.ID, "error", err)
	}
	s.log.Info("session started", "session_id", session.ID, "path", path.Slug, "player_level", playerLevel)
	return session, nil
}

func (s *SessionService) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	session, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, apierr.New(http.StatusNotFound, "session_not_found", err)
	}
	return session, nil
}

// QuestionView is a question as presented to the player: localized, with
// the correct index withheld.
type QuestionView struct {
	ID         string   `json:"id"`
	Category   string   `json:"category"`
	Difficulty string   `json:"difficulty"`
	Text       string   `json:"text"`
	Answers    []string `json:"answers"`
	Hint       string   `json:"hint,omitempty"`
}

// DrawQuestions produces the next batch. The difficulty selector converts
// the session's live signals into a target tier, which keys the pool's
// per-slot weighting.
func (s *SessionService) DrawQuestions(ctx context.Context, id uuid.UUID, count int) ([]QuestionView, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Lives <= 0 {
		return nil, apierr.New(http.StatusConflict, "session_game_over", fmt.Errorf("no lives remaining"))
	}
	if count <= 0 {
		count = 1
	}
	if count > s.cfg.MaxBatchSize {
		count = s.cfg.MaxBatchSize
	}
	path, ok := engine.PathBySlug(s.paths, session.PathSlug)
	if !ok {
		return nil, apierr.New(http.StatusInternalServerError, "path_missing", fmt.Errorf("session path %q vanished", session.PathSlug))
	}

	tier := s.selector.Pick(session.PlayerLevel, session.Streak, session.RecentMistakes())
	items, err := s.pool.Draw(ctx, path, session.UsedIDs, count, tier.Order()+1)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "draw_failed", err)
	}

	views := make([]QuestionView, 0, len(items))
	for _, item := range items {
		views = append(views, QuestionView{
			ID:         item.ID,
			Category:   string(item.Category),
			Difficulty: string(item.Tier),
			Text:       item.Text.Resolve(session.Locale),
			Answers:    item.Answers.Resolve(session.Locale),
			Hint:       item.Hint.Resolve(session.Locale),
		})
	}
	return views, nil
}

type AnswerOutcome struct {
	Correct            bool                       `json:"correct"`
	CorrectAnswerIndex int                        `json:"correct_answer_index"`
	FunFact            string                     `json:"fun_fact,omitempty"`
	Streak             int                        `json:"streak"`
	Lives              int                        `json:"lives"`
	QuestionsAnswered  int                        `json:"questions_answered"`
	CheckpointReached  *domain.Checkpoint         `json:"checkpoint_reached,omitempty"`
	AwardedPowerUps    map[domain.PowerUpKind]int `json:"awarded_power_ups,omitempty"`
	Inventory          map[domain.PowerUpKind]int `json:"inventory"`
}

func (s *SessionService) SubmitAnswer(ctx context.Context, id uuid.UUID, questionID string, answerIndex int) (*AnswerOutcome, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Lives <= 0 {
		return nil, apierr.New(http.StatusConflict, "session_game_over", fmt.Errorf("no lives remaining"))
	}
	questionID = strings.TrimSpace(questionID)
	if questionID == "" {
		return nil, apierr.New(http.StatusBadRequest, "missing_question_id", nil)
	}
	item, found, err := s.pool.ItemByID(ctx, questionID)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "content_lookup_failed", err)
	}
	if !found {
		return nil, apierr.New(http.StatusNotFound, "question_not_found", fmt.Errorf("unknown question %q", questionID))
	}

	correct := answerIndex == item.CorrectAnswerIndex
	if correct {
		session.Streak++
		session.CorrectAnswers++
	} else {
		session.Streak = 0
		session.Lives--
	}
	session.RecentResults = append(session.RecentResults, correct)
	if len(session.RecentResults) > s.cfg.RecentWindow {
		session.RecentResults = session.RecentResults[len(session.RecentResults)-s.cfg.RecentWindow:]
	}
	session.QuestionsAnswered++
	if !containsID(session.UsedIDs, item.ID) {
		session.UsedIDs = append(session.UsedIDs, item.ID)
	}

	outcome := &AnswerOutcome{
		Correct:            correct,
		CorrectAnswerIndex: item.CorrectAnswerIndex,
		FunFact:            item.FunFact.Resolve(session.Locale),
	}

	path, ok := engine.PathBySlug(s.paths, session.PathSlug)
	if ok {
		if next := path.CheckpointAtLevel(session.CheckpointLevel + 1); next != nil && session.QuestionsAnswered >= next.QuestionsRequired {
			session.CheckpointLevel = next.Level
			awarded := s.rewards.RewardsFor(*next, session.Accuracy())
			addInventory(session, awarded)
			outcome.CheckpointReached = next
			outcome.AwardedPowerUps = awarded
			s.log.Info("checkpoint reached",
				"session_id", session.ID, "path", path.Slug, "checkpoint", next.Level, "accuracy", session.Accuracy())
		}
	}

	outcome.Streak = session.Streak
	outcome.Lives = session.Lives
	outcome.QuestionsAnswered = session.QuestionsAnswered
	outcome.Inventory = session.Inventory

	if err := s.store.Put(ctx, session); err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "session_store_failed", err)
	}
	if err := s.persistProgress(ctx, session); err != nil {
		s.log.Warn("progress persist failed on answer", "session_id", session.ID, "error", err)
	}
	return outcome, nil
}

// GameOver runs the fallback controller and applies its decision to the
// session. Callable only when lives are exhausted, which also makes a
// retried call a no-op instead of double-granting rewards.
func (s *SessionService) GameOver(ctx context.Context, id uuid.UUID) (*domain.FallbackResult, *Session, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if session.Lives > 0 {
		return nil, nil, apierr.New(http.StatusConflict, "session_still_alive", fmt.Errorf("lives remaining: %d", session.Lives))
	}
	path, ok := engine.PathBySlug(s.paths, session.PathSlug)
	if !ok {
		return nil, nil, apierr.New(http.StatusInternalServerError, "path_missing", fmt.Errorf("session path %q vanished", session.PathSlug))
	}

	state := domain.PathProgressState{
		CurrentCheckpoint: path.CheckpointAtLevel(session.CheckpointLevel),
		AnsweredIDs:       session.UsedIDs,
		PowerUpInventory:  session.Inventory,
		LivesRemaining:    session.Lives,
	}

	result := s.fallback.HandleGameOver(ctx, path, state)
	switch result.Kind {
	case domain.FallbackResetToCheckpoint:
		session.Lives = result.RestoredLives
		addInventory(session, result.AwardedPowerUps)
		// Roll history back to the checkpoint threshold.
		required := result.Checkpoint.QuestionsRequired
		if len(session.UsedIDs) > required {
			session.UsedIDs = session.UsedIDs[:required]
		}
		session.QuestionsAnswered = required
		if session.CorrectAnswers > required {
			session.CorrectAnswers = required
		}
		session.Streak = 0
		session.RecentResults = nil
	case domain.FallbackRestartFromBeginning:
		session.Lives = result.RestoredLives
		session.UsedIDs = nil
		session.QuestionsAnswered = 0
		session.CorrectAnswers = 0
		session.CheckpointLevel = 0
		session.Streak = 0
		session.RecentResults = nil
	case domain.FallbackRecoveryError:
		// Terminal; the caller surfaces it. Session stays untouched.
		return &result, session, nil
	}

	if err := s.store.Put(ctx, session); err != nil {
		return nil, nil, apierr.New(http.StatusInternalServerError, "session_store_failed", err)
	}
	if err := s.persistProgress(ctx, session); err != nil {
		s.log.Warn("progress persist failed on recovery", "session_id", session.ID, "error", err)
	}
	return &result, session, nil
}

// Progress returns the durable snapshot for the session's path, or nil when
// nothing was persisted yet.
func (s *SessionService) Progress(ctx context.Context, id uuid.UUID) (*domain.PathProgress, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.progress == nil {
		return nil, nil
	}
	row, err := s.progress.GetBySessionPath(ctx, nil, session.ID, session.PathSlug)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "progress_lookup_failed", err)
	}
	return row, nil
}

// End discards the live session and its durable progress.
func (s *SessionService) End(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return apierr.New(http.StatusInternalServerError, "session_store_failed", err)
	}
	if s.progress != nil {
		if err := s.progress.DeleteBySession(ctx, nil, id); err != nil {
			return apierr.New(http.StatusInternalServerError, "progress_delete_failed", err)
		}
	}
	s.log.Info("session ended", "session_id", id)
	return nil
}

// persistProgress mirrors the session into the durable PathProgress row.
func (s *SessionService) persistProgress(ctx context.Context, session *Session) error {
	if s.progress == nil {
		return nil
	}
	answered, err := json.Marshal(session.UsedIDs)
	if err != nil {
		return err
	}
	inventory, err := json.Marshal(session.Inventory)
	if err != nil {
		return err
	}
	return s.progress.Upsert(ctx, nil, &domain.PathProgress{
		SessionID:         session.ID,
		PathSlug:          session.PathSlug,
		CheckpointLevel:   session.CheckpointLevel,
		QuestionsAnswered: session.QuestionsAnswered,
		CorrectAnswers:    session.CorrectAnswers,
		LivesRemaining:    session.Lives,
		AnsweredIDs:       datatypes.JSON(answered),
		Inventory:         datatypes.JSON(inventory),
	})
}

func addInventory(session *Session, grants map[domain.PowerUpKind]int) {
	if session.Inventory == nil {
		session.Inventory = map[domain.PowerUpKind]int{}
	}
	for kind, n := range grants {
		session.Inventory[kind] += n
	}
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
