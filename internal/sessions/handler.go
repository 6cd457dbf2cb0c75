package sessions

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"skincare-backend/internal/profile"
	"skincare-backend/internal/recommendation"
	"skincare-backend/internal/render"
	"skincare-backend/internal/shared/server/middleware"
	"skincare-backend/internal/shared/server/respond"
	"skincare-backend/internal/wizard"
)

// Handler wires HTTP handlers to the session service.
type Handler struct {
	Svc      *Service
	Currency string
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches session routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/sessions", h.create)
	rg.GET("/sessions/:id", h.get)
	rg.DELETE("/sessions/:id", h.destroy)
	rg.PUT("/sessions/:id/answers", h.answer)
	rg.POST("/sessions/:id/advance", h.advance)
	rg.POST("/sessions/:id/retreat", h.retreat)
	rg.POST("/sessions/:id/jump", h.jump)
	rg.POST("/sessions/:id/reset", h.reset)
	rg.POST("/sessions/:id/regenerate", h.regenerate)
	rg.POST("/sessions/:id/image", h.uploadImage)
	rg.GET("/sessions/:id/image", h.image)
	rg.GET("/sessions/:id/results", h.results)
}

type createRequest struct {
	Flow string `json:"flow"`
}

func (h *Handler) create(c *gin.Context) {
	var req createRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
			return
		}
	}
	sess, err := h.Svc.Create(c.Request.Context(), middleware.UserIDFromContext(c), strings.TrimSpace(req.Flow))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Set(middleware.SessionIDKey, sess.ID)
	h.respondSession(c, http.StatusCreated, sess)
}

func (h *Handler) get(c *gin.Context) {
	id := h.sessionID(c)
	sess, err := h.Svc.Get(c.Request.Context(), middleware.UserIDFromContext(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.respondSession(c, http.StatusOK, sess)
}

func (h *Handler) destroy(c *gin.Context) {
	id := h.sessionID(c)
	if err := h.Svc.Destroy(c.Request.Context(), middleware.UserIDFromContext(c), id); err != nil {
		h.fail(c, err)
		return
	}
	respond.NoContent(c)
}

func (h *Handler) answer(c *gin.Context) {
	id := h.sessionID(c)
	var answers map[string]any
	if err := c.ShouldBindJSON(&answers); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	sess, err := h.Svc.Answer(c.Request.Context(), middleware.UserIDFromContext(c), id, answers)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.respondSession(c, http.StatusOK, sess)
}

func (h *Handler) advance(c *gin.Context) {
	h.move(c, h.Svc.Advance)
}

func (h *Handler) retreat(c *gin.Context) {
	h.move(c, h.Svc.Retreat)
}

func (h *Handler) jump(c *gin.Context) {
	h.move(c, h.Svc.JumpToResults)
}

func (h *Handler) reset(c *gin.Context) {
	h.move(c, h.Svc.Reset)
}

func (h *Handler) regenerate(c *gin.Context) {
	h.move(c, h.Svc.Regenerate)
}

type moveFunc func(ctx context.Context, ownerID, id string) (*wizard.Session, error)

func (h *Handler) move(c *gin.Context, fn moveFunc) {
	id := h.sessionID(c)
	owner := middleware.UserIDFromContext(c)
	before, err := h.Svc.Get(c.Request.Context(), owner, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	sess, err := fn(h.fetchContext(c), owner, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Set(middleware.StepTransitionKey, fmt.Sprintf("%d->%d", before.State.CurrentStep, sess.State.CurrentStep))
	if sess.Result != nil {
		c.Set(middleware.FetchSourceKey, string(sess.Result.Source))
	}
	h.respondSession(c, http.StatusOK, sess)
}

func (h *Handler) uploadImage(c *gin.Context) {
	id := h.sessionID(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxImageBytes+(1<<20))

	fileHeader, err := c.FormFile("image")
	if err != nil {
		respond.Error(c, http.StatusUnprocessableEntity, "validation_error", "image is required", []gin.H{{"field": "image", "issue": "is required"}})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read image", nil)
		return
	}
	defer file.Close()

	outcome, sess, err := h.Svc.AnalyzeImage(h.fetchContext(c), middleware.UserIDFromContext(c), id, fileHeader.Filename, file)
	if err != nil {
		h.fail(c, err)
		return
	}
	flow, err := h.Svc.Flow(sess)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond.OK(c, gin.H{
		"image":   outcome,
		"session": toView(sess, flow),
	})
}

func (h *Handler) image(c *gin.Context) {
	id := h.sessionID(c)
	data, mimeType, err := h.Svc.OpenImage(c.Request.Context(), middleware.UserIDFromContext(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond.Document(c, mimeType, data)
}

func (h *Handler) results(c *gin.Context) {
	id := h.sessionID(c)
	format := strings.ToLower(strings.TrimSpace(c.DefaultQuery("format", "json")))
	if format != "json" && format != "markdown" && format != "html" {
		respond.Error(c, http.StatusUnprocessableEntity, "validation_error", "format must be json, markdown or html",
			[]gin.H{{"field": "format", "issue": "must be json, markdown or html"}})
		return
	}

	sess, err := h.Svc.Results(h.fetchContext(c), middleware.UserIDFromContext(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	res := *sess.Result
	c.Set(middleware.FetchSourceKey, string(res.Source))

	opts := render.Options{
		Name:     sess.Profile.Snapshot().String(profile.FieldName),
		Currency: h.Currency,
		Debug:    c.Query("debug") == "true",
	}
	switch format {
	case "markdown":
		respond.Document(c, "text/markdown; charset=utf-8", []byte(render.Markdown(res, opts)))
	case "html":
		page, err := render.HTML(res, opts)
		if err != nil {
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to render results", nil)
			return
		}
		respond.Document(c, "text/html; charset=utf-8", []byte(page))
	default:
		respond.OK(c, gin.H{
			"sessionId": sess.ID,
			"notice":    sess.Notice,
			"view":      render.BuildView(res, opts),
			"result":    res,
		})
	}
}

func (h *Handler) respondSession(c *gin.Context, status int, sess *wizard.Session) {
	flow, err := h.Svc.Flow(sess)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond.JSON(c, status, toView(sess, flow))
}

func (h *Handler) sessionID(c *gin.Context) string {
	id := c.Param("id")
	c.Set(middleware.SessionIDKey, id)
	return id
}

func (h *Handler) fetchContext(c *gin.Context) context.Context {
	return recommendation.WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
}

func (h *Handler) fail(c *gin.Context, err error) {
	if ve, ok := profile.AsValidation(err); ok {
		respond.Error(c, http.StatusUnprocessableEntity, "validation_error", ve.Error(),
			[]gin.H{{"field": ve.Field, "issue": ve.Issue}})
		return
	}
	switch {
	case errors.Is(err, wizard.ErrUnknownFlow):
		respond.Error(c, http.StatusUnprocessableEntity, "validation_error", err.Error(),
			[]gin.H{{"field": "flow", "issue": "is not a known flow"}})
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "session not found", nil)
	case errors.Is(err, ErrNoImage):
		respond.Error(c, http.StatusNotFound, "not_found", "no image uploaded for this session", nil)
	case errors.Is(err, wizard.ErrNotAtResults):
		respond.Error(c, http.StatusConflict, "not_at_results", "session is not at the results step", nil)
	case errors.Is(err, ErrInvalidOwner):
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing identity", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "session operation failed", nil)
	}
}
