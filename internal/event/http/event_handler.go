// Package http provides the HTTP handlers of the event API: enqueueing,
// inspection and operator requeue.
package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/allisson/pubflow/internal/event/domain"
	"github.com/allisson/pubflow/internal/event/http/dto"
	eventUseCase "github.com/allisson/pubflow/internal/event/usecase"
	"github.com/allisson/pubflow/internal/httputil"
	customValidation "github.com/allisson/pubflow/internal/validation"
)

// EventHandler handles HTTP requests for events.
type EventHandler struct {
	eventUseCase eventUseCase.EventUseCase
	logger       *slog.Logger
}

// NewEventHandler creates a new event handler.
func NewEventHandler(eventUseCase eventUseCase.EventUseCase, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		eventUseCase: eventUseCase,
		logger:       logger,
	}
}

// RegisterRoutes mounts the event routes on group.
func (h *EventHandler) RegisterRoutes(group *gin.RouterGroup) {
	events := group.Group("/events")
	events.POST("", h.EnqueueHandler)
	events.GET("", h.ListHandler)
	events.GET("/:id", h.GetHandler)
	events.POST("/:id/requeue", h.RequeueHandler)
}

// EnqueueHandler enqueues a new event.
// POST /v1/events
// Returns 201 Created with the stored event.
func (h *EventHandler) EnqueueHandler(c *gin.Context) {
	var req dto.EnqueueEventRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	event, err := h.eventUseCase.Enqueue(c.Request.Context(), req.ToInput())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapEventToResponse(event))
}

// ListHandler lists events filtered by status and type.
// GET /v1/events?status=failed&type=UserCreated&offset=0&limit=50
func (h *EventHandler) ListHandler(c *gin.Context) {
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	statuses, err := dto.ParseStatuses(c.Query("status"))
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	types, err := dto.ParseTypes(c.Query("type"))
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	events, err := h.eventUseCase.List(c.Request.Context(), domain.EventFilter{
		Statuses: statuses,
		Types:    types,
		Offset:   offset,
		Limit:    limit,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapEventsToListResponse(events, offset, limit))
}

// GetHandler returns one event.
// GET /v1/events/:id
func (h *EventHandler) GetHandler(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	event, err := h.eventUseCase.Get(c.Request.Context(), id)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapEventToResponse(event))
}

// RequeueHandler enqueues a fresh copy of a failed event.
// POST /v1/events/:id/requeue
// Returns 201 Created with the new event, 422 when the event is not failed.
func (h *EventHandler) RequeueHandler(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	event, err := h.eventUseCase.Requeue(c.Request.Context(), id)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapEventToResponse(event))
}

func (h *EventHandler) parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid event id: %w", err), h.logger)
		return uuid.Nil, false
	}
	return id, true
}
