package api

import (
	"encoding/base64"
	"net/http"

	"solo-persona/backend/internal/models"
	"solo-persona/backend/internal/session"
	apperrors "solo-persona/backend/pkg/errors"
	"solo-persona/backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// SessionStore is the registry the handlers operate on.
type SessionStore interface {
	Create() *session.Controller
	Get(id string) (*session.Controller, error)
	Delete(id string) error
}

// SessionHandler exposes the quiz state machine over HTTP.
type SessionHandler struct {
	store SessionStore
}

func NewSessionHandler(store SessionStore) *SessionHandler {
	return &SessionHandler{store: store}
}

// GenderRequest selects the contestant gender.
type GenderRequest struct {
	Gender string `json:"gender" binding:"required"`
}

// AnswerRequest answers the current question.
type AnswerRequest struct {
	QuestionID int    `json:"questionId" binding:"required"`
	OptionID   string `json:"optionId" binding:"required"`
}

// MatchRequest starts a compatibility check.
type MatchRequest struct {
	PartnerName string `json:"partnerName"`
}

// OptionView is an answer choice without its trait deltas.
type OptionView struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// QuestionResponse is the current question and quiz progress.
type QuestionResponse struct {
	ID       int              `json:"id"`
	Text     string           `json:"text"`
	Options  []OptionView     `json:"options"`
	Progress session.Progress `json:"progress"`
}

// RadarResponse feeds the chart renderer.
type RadarResponse struct {
	Axes []models.RadarAxis `json:"axes"`
}

// RegisterRoutes mounts the session routes. aiLimited wraps the endpoints that
// trigger upstream calls.
func (h *SessionHandler) RegisterRoutes(rg *gin.RouterGroup, aiLimited ...gin.HandlerFunc) {
	limited := func(next gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, aiLimited...), next)
	}

	sessions := rg.Group("/sessions")
	{
		sessions.POST("", h.Create)
		sessions.GET("/:id", h.Get)
		sessions.DELETE("/:id", h.Delete)
		sessions.POST("/:id/start", h.Start)
		sessions.POST("/:id/back", h.Back)
		sessions.POST("/:id/gender", h.SelectGender)
		sessions.GET("/:id/question", h.Question)
		sessions.POST("/:id/answers", limited(h.Answer)...)
		sessions.POST("/:id/regenerate", limited(h.Regenerate)...)
		sessions.POST("/:id/match", limited(h.CheckMatch)...)
		sessions.DELETE("/:id/match", h.ClearMatch)
		sessions.POST("/:id/restart", h.Restart)
		sessions.GET("/:id/radar", h.Radar)
		sessions.GET("/:id/portraits/:slot", h.Portrait)
	}
}

func (h *SessionHandler) controller(c *gin.Context) (*session.Controller, bool) {
	ctrl, err := h.store.Get(c.Param("id"))
	if err != nil {
		_ = c.Error(toAppError(err))
		return nil, false
	}
	return ctrl, true
}

func (h *SessionHandler) respond(c *gin.Context, status int, snap session.Snapshot, err error) {
	if err != nil {
		_ = c.Error(toAppError(err))
		return
	}
	c.JSON(status, snap)
}

func (h *SessionHandler) Create(c *gin.Context) {
	ctrl := h.store.Create()
	logger.FromContext(c.Request.Context()).Info("session created", "session_id", ctrl.ID())
	c.Header("Location", c.FullPath()+"/"+ctrl.ID())
	c.JSON(http.StatusCreated, ctrl.Snapshot())
}

func (h *SessionHandler) Get(c *gin.Context) {
	if ctrl, ok := h.controller(c); ok {
		c.JSON(http.StatusOK, ctrl.Snapshot())
	}
}

func (h *SessionHandler) Delete(c *gin.Context) {
	if err := h.store.Delete(c.Param("id")); err != nil {
		_ = c.Error(toAppError(err))
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) Start(c *gin.Context) {
	if ctrl, ok := h.controller(c); ok {
		snap, err := ctrl.Start()
		h.respond(c, http.StatusOK, snap, err)
	}
}

func (h *SessionHandler) Back(c *gin.Context) {
	if ctrl, ok := h.controller(c); ok {
		snap, err := ctrl.Back()
		h.respond(c, http.StatusOK, snap, err)
	}
}

func (h *SessionHandler) SelectGender(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	var req GenderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.NewBadRequestError("INVALID_REQUEST", err.Error()))
		return
	}
	g, err := models.ParseGender(req.Gender)
	if err != nil {
		_ = c.Error(apperrors.NewBadRequestError("INVALID_GENDER", err.Error()))
		return
	}

	snap, err := ctrl.SelectGender(g)
	h.respond(c, http.StatusOK, snap, err)
}

func (h *SessionHandler) Question(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	q, progress, err := ctrl.CurrentQuestion()
	if err != nil {
		_ = c.Error(toAppError(err))
		return
	}

	resp := QuestionResponse{ID: q.ID, Text: q.Text, Progress: progress}
	for _, o := range q.Options {
		resp.Options = append(resp.Options, OptionView{ID: o.ID, Text: o.Text})
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SessionHandler) Answer(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	var req AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.NewBadRequestError("INVALID_REQUEST", err.Error()))
		return
	}

	snap, err := ctrl.Answer(req.QuestionID, req.OptionID)
	status := http.StatusOK
	if snap.State == session.StateAnalyzing {
		status = http.StatusAccepted
	}
	h.respond(c, status, snap, err)
}

func (h *SessionHandler) Regenerate(c *gin.Context) {
	if ctrl, ok := h.controller(c); ok {
		snap, err := ctrl.Regenerate()
		h.respond(c, http.StatusAccepted, snap, err)
	}
}

func (h *SessionHandler) CheckMatch(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	var req MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.NewBadRequestError("INVALID_REQUEST", err.Error()))
		return
	}

	snap, err := ctrl.CheckMatch(req.PartnerName)
	h.respond(c, http.StatusAccepted, snap, err)
}

func (h *SessionHandler) ClearMatch(c *gin.Context) {
	if ctrl, ok := h.controller(c); ok {
		snap, err := ctrl.ClearMatch()
		h.respond(c, http.StatusOK, snap, err)
	}
}

func (h *SessionHandler) Restart(c *gin.Context) {
	if ctrl, ok := h.controller(c); ok {
		c.JSON(http.StatusOK, ctrl.Restart())
	}
}

func (h *SessionHandler) Radar(c *gin.Context) {
	if ctrl, ok := h.controller(c); ok {
		c.JSON(http.StatusOK, RadarResponse{Axes: ctrl.Snapshot().Traits.Axes()})
	}
}

// Portrait serves the raw image bytes of one slot.
func (h *SessionHandler) Portrait(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	slot, ok := session.ParseSlot(c.Param("slot"))
	if !ok {
		_ = c.Error(apperrors.NewBadRequestError("INVALID_SLOT", "slot must be self or partner"))
		return
	}
	p, ok := ctrl.Portrait(slot)
	if !ok {
		_ = c.Error(apperrors.NewNotFoundError("PORTRAIT_NOT_READY", "portrait is not available"))
		return
	}

	data, err := base64.StdEncoding.DecodeString(p.Data)
	if err != nil {
		_ = c.Error(apperrors.NewInternalServerError("PORTRAIT_CORRUPT", err.Error()))
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, p.MimeType, data)
}
