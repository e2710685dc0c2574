package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/pawquest-backend/internal/domain"
	"github.com/yungbote/pawquest-backend/internal/pkg/logger"
	"github.com/yungbote/pawquest-backend/internal/services"
)

type SessionHandler struct {
	log *logger.Logger
	svc *services.SessionService
}

func NewSessionHandler(log *logger.Logger, svc *services.SessionService) *SessionHandler {
	return &SessionHandler{
		log: log.With("handler", "SessionHandler"),
		svc: svc,
	}
}

// GET /api/paths
func (h *SessionHandler) ListPaths(c *gin.Context) {
	type pathInfo struct {
		Slug        string              `json:"slug"`
		Title       string              `json:"title"`
		Policy      string              `json:"policy"`
		Checkpoints []domain.Checkpoint `json:"checkpoints"`
	}
	paths := h.svc.Paths()
	out := make([]pathInfo, 0, len(paths))
	for _, p := range paths {
		out = append(out, pathInfo{
			Slug:        p.Slug,
			Title:       p.Title,
			Policy:      p.Policy.Name(),
			Checkpoints: p.Checkpoints,
		})
	}
	RespondOK(c, gin.H{"paths": out})
}

type startSessionRequest struct {
	Path        string `json:"path" binding:"required"`
	PlayerLevel int    `json:"player_level"`
	Locale      string `json:"locale"`
}

// POST /api/sessions
func (h *SessionHandler) Start(c *gin.Context) {
	var req startSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if req.PlayerLevel == 0 {
		req.PlayerLevel = 1
	}
	session, err := h.svc.Start(c.Request.Context(), req.Path, req.PlayerLevel, req.Locale)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

// GET /api/sessions/:id
func (h *SessionHandler) Get(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	session, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, session)
}

type drawRequest struct {
	Count int `json:"count"`
}

// POST /api/sessions/:id/questions
func (h *SessionHandler) Draw(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	// An empty body means "default count"; only a malformed one is an error.
	var req drawRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	questions, err := h.svc.DrawQuestions(c.Request.Context(), id, req.Count)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"questions": questions})
}

type answerRequest struct {
	QuestionID  string `json:"question_id" binding:"required"`
	AnswerIndex int    `json:"answer_index"`
}

// POST /api/sessions/:id/answers
func (h *SessionHandler) Answer(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	outcome, err := h.svc.SubmitAnswer(c.Request.Context(), id, req.QuestionID, req.AnswerIndex)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, outcome)
}

// POST /api/sessions/:id/gameover
func (h *SessionHandler) GameOver(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	result, session, err := h.svc.GameOver(c.Request.Context(), id)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	if result.Kind == domain.FallbackRecoveryError {
		c.JSON(http.StatusInternalServerError, gin.H{
			"result":  result,
			"message": "recovery failed, please restart the app",
		})
		return
	}
	RespondOK(c, gin.H{"result": result, "session": session})
}

// GET /api/sessions/:id/progress
func (h *SessionHandler) Progress(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	row, err := h.svc.Progress(c.Request.Context(), id)
	if err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"progress": row})
}

// DELETE /api/sessions/:id
func (h *SessionHandler) End(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	if err := h.svc.End(c.Request.Context(), id); err != nil {
		RespondAPIError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}

func (h *SessionHandler) sessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_session_id", err)
		return uuid.Nil, false
	}
	return id, true
}
