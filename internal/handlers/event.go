package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/chronograph-app/chronograph/internal/models"
	"github.com/chronograph-app/chronograph/internal/services"
	"github.com/chronograph-app/chronograph/internal/utils"
	"github.com/gin-gonic/gin"
)

type EventHandler struct {
	events *services.EventService
}

func NewEventHandler(events *services.EventService) *EventHandler {
	return &EventHandler{events: events}
}

type EventRequest struct {
	Name        string               `json:"name" binding:"required"`
	Description string               `json:"description"`
	Color       string               `json:"color"`
	Link        string               `json:"link"`
	StartAt     time.Time            `json:"start_at" binding:"required"`
	EndAt       *time.Time           `json:"end_at"`
	Category    models.EventCategory `json:"category" binding:"required"`
	CalendarID  uint                 `json:"calendar_id"`
	Frequency   models.Frequency     `json:"frequency"`
	Interval    int                  `json:"interval"`
}

type RecurrenceResponse struct {
	Frequency models.Frequency `json:"frequency"`
	Interval  int              `json:"interval"`
}

type EventResponse struct {
	ID          uint                 `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Color       string               `json:"color"`
	Link        string               `json:"link"`
	StartAt     time.Time            `json:"start_at"`
	EndAt       *time.Time           `json:"end_at"`
	Category    models.EventCategory `json:"category"`
	CalendarID  uint                 `json:"calendar_id"`
	CreatorID   uint                 `json:"creator_id"`
	Recurrence  *RecurrenceResponse  `json:"recurrence,omitempty"`
}

func toEventResponse(event *models.Event) EventResponse {
	response := EventResponse{
		ID:          event.ID,
		Name:        event.Name,
		Description: event.Description,
		Color:       event.Color,
		Link:        event.Link,
		StartAt:     event.StartAt,
		EndAt:       event.EndAt,
		Category:    event.Category,
		CalendarID:  event.CalendarID,
		CreatorID:   event.CreatorID,
	}

	if event.Recurrence != nil {
		response.Recurrence = &RecurrenceResponse{
			Frequency: event.Recurrence.Frequency,
			Interval:  event.Recurrence.Interval,
		}
	}

	return response
}

func (h *EventHandler) List(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	query := services.EventQuery{Search: ctx.Query("search")}

	if raw := ctx.Query("calendar_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid calendar_id"})
			return
		}
		calendarID := uint(id)
		query.CalendarID = &calendarID
	}

	if raw := ctx.Query("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "from must be RFC 3339"})
			return
		}
		query.From = &from
	}

	if raw := ctx.Query("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "to must be RFC 3339"})
			return
		}
		query.To = &to
	}

	events, err := h.events.FindVisible(userID, query)

	if err != nil {
		respondError(ctx, err)
		return
	}

	response := make([]EventResponse, 0, len(events))
	for i := range events {
		response = append(response, toEventResponse(&events[i]))
	}

	ctx.JSON(http.StatusOK, response)
}

func (h *EventHandler) Get(ctx *gin.Context) {
	eventID, err := utils.GetEventID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	event, err := h.events.FindByID(eventID, userID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, toEventResponse(event))
}

func (h *EventHandler) Create(ctx *gin.Context) {
	var req EventRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	event, err := h.events.Create(services.EventInput{
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
		Link:        req.Link,
		StartAt:     req.StartAt,
		EndAt:       req.EndAt,
		Category:    req.Category,
		CalendarID:  req.CalendarID,
		Frequency:   req.Frequency,
		Interval:    req.Interval,
	}, userID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	BroadcastCalendarRefresh(strconv.FormatUint(uint64(event.CalendarID), 10))

	ctx.JSON(http.StatusCreated, toEventResponse(event))
}

func (h *EventHandler) Update(ctx *gin.Context) {
	eventID, err := utils.GetEventID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req EventRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	event, err := h.events.Update(eventID, services.EventInput{
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
		Link:        req.Link,
		StartAt:     req.StartAt,
		EndAt:       req.EndAt,
		Category:    req.Category,
		CalendarID:  req.CalendarID,
		Frequency:   req.Frequency,
		Interval:    req.Interval,
	}, userID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	BroadcastCalendarRefresh(strconv.FormatUint(uint64(event.CalendarID), 10))

	ctx.JSON(http.StatusOK, toEventResponse(event))
}

func (h *EventHandler) Delete(ctx *gin.Context) {
	eventID, err := utils.GetEventID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	event, err := h.events.FindByID(eventID, userID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	if err := h.events.Delete(eventID, userID); err != nil {
		respondError(ctx, err)
		return
	}

	BroadcastCalendarRefresh(strconv.FormatUint(uint64(event.CalendarID), 10))

	ctx.Status(http.StatusNoContent)
}
