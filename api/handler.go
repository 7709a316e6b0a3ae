package api

import (
	"context"
	"io"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/lithammer/shortuuid/v4"

	"vidtrack/config"
	"vidtrack/job"
	"vidtrack/logger"
)

// Tracker is the part of job.Controller the HTTP bridge needs.
type Tracker interface {
	Submit(ctx context.Context, videoURL string) error
	State() job.ViewState
	Subscribe() (<-chan job.ViewState, func())
	Stop()
}

// Handler serves the job endpoints on top of a Tracker.
type Handler struct {
	tracker Tracker
	cfg     *config.Config
}

func NewHandler(tracker Tracker, cfg *config.Config) *Handler {
	return &Handler{
		tracker: tracker,
		cfg:     cfg,
	}
}

type SubmitRequest struct {
	VideoURL string `json:"videoUrl" form:"videoUrl" binding:"required"`
}

// handleSubmit starts tracking a new job and answers with the resulting snapshot.
func (h *Handler) handleSubmit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.tracker.Submit(c.Request.Context(), req.VideoURL)
	switch {
	case err == nil:
		c.JSON(http.StatusAccepted, h.tracker.State())
	case errors.Is(err, job.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": job.UserMessage(err, "invalid URL")})
	case errors.Is(err, job.ErrSuperseded):
		c.JSON(http.StatusConflict, gin.H{"error": "submission was superseded by a newer one"})
	case errors.Is(err, job.ErrClosed):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service is shutting down"})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": job.UserMessage(err, "job submission failed")})
	}
}

// handleCurrent returns the current snapshot.
func (h *Handler) handleCurrent(c *gin.Context) {
	c.JSON(http.StatusOK, h.tracker.State())
}

// handleStop tears down the current job.
func (h *Handler) handleStop(c *gin.Context) {
	h.tracker.Stop()
	c.JSON(http.StatusOK, h.tracker.State())
}

// handleEvents streams every snapshot as a server-sent "state" event until
// the client goes away.
func (h *Handler) handleEvents(c *gin.Context) {
	id := shortuuid.New()
	log := logger.Named("api").With(logger.FieldSubscriber, id)

	updates, unsubscribe := h.tracker.Subscribe()
	defer unsubscribe()

	log.Infow("Event stream opened")
	c.Header("X-Subscriber-ID", id)
	c.Header("Cache-Control", "no-cache")

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case s, ok := <-updates:
			if !ok {
				return false
			}
			c.SSEvent("state", s)
			return true
		}
	})
	log.Infow("Event stream closed")
}
