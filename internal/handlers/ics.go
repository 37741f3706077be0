package handlers

import (
	"fmt"
	"net/http"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/chronograph-app/chronograph/internal/models"
	"github.com/chronograph-app/chronograph/internal/recurrence"
	"github.com/chronograph-app/chronograph/internal/services"
	"github.com/chronograph-app/chronograph/internal/utils"
	"github.com/gin-gonic/gin"
)

// Recurring events are expanded into concrete entries for the year ahead
// rather than emitted as RRULEs: the flat 30/365-day periods have no faithful
// RFC 5545 rule, so consumers get the exact instants instead.
const (
	exportHorizon        = 365 * 24 * time.Hour
	maxExportOccurrences = 400
)

type ExportHandler struct {
	events *services.EventService
	domain string
}

func NewExportHandler(events *services.EventService, domain string) *ExportHandler {
	return &ExportHandler{events: events, domain: domain}
}

// ExportICS serializes a whole calendar as an iCalendar feed.
func (h *ExportHandler) ExportICS(ctx *gin.Context) {
	calendarID, err := utils.GetCalendarID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	calendar, events, err := h.events.FindForExport(calendarID, userID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	feed := ics.NewCalendar()
	feed.SetMethod(ics.MethodPublish)
	feed.SetProductId("-//chronograph//calendar//EN")
	feed.SetName(calendar.Name)
	if calendar.Description != "" {
		feed.SetDescription(calendar.Description)
	}

	now := time.Now()

	for i := range events {
		event := &events[i]

		if event.Recurrence == nil {
			h.addEntry(feed, event, event.StartAt, 0)
			continue
		}

		from := now
		if event.StartAt.After(now) {
			from = event.StartAt
		}
		occurrences := recurrence.Occurrences(
			event.StartAt, event.Recurrence.RepeatPeriod,
			from, now.Add(exportHorizon), maxExportOccurrences,
		)
		for n, instant := range occurrences {
			h.addEntry(feed, event, instant, n)
		}
	}

	ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", calendar.Name+".ics"))
	ctx.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(feed.Serialize()))
}

func (h *ExportHandler) addEntry(feed *ics.Calendar, event *models.Event, startAt time.Time, n int) {
	uid := fmt.Sprintf("event-%d@%s", event.ID, h.domain)
	if n > 0 {
		uid = fmt.Sprintf("event-%d-%d@%s", event.ID, n, h.domain)
	}

	entry := feed.AddEvent(uid)
	entry.SetCreatedTime(event.CreatedAt)
	entry.SetDtStampTime(event.UpdatedAt)
	entry.SetStartAt(startAt)
	if event.EndAt != nil {
		entry.SetEndAt(startAt.Add(event.EndAt.Sub(event.StartAt)))
	}
	entry.SetSummary(event.Name)
	if event.Description != "" {
		entry.SetDescription(event.Description)
	}
	if event.Link != "" {
		entry.SetURL(event.Link)
	}
}
