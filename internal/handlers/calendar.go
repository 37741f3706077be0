package handlers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/chronograph-app/chronograph/internal/holidays"
	"github.com/chronograph-app/chronograph/internal/models"
	"github.com/chronograph-app/chronograph/internal/services"
	"github.com/chronograph-app/chronograph/internal/utils"
	"github.com/gin-gonic/gin"
)

type CalendarHandler struct {
	calendars *services.CalendarService
	holidays  *services.HolidayService
	countries *holidays.Client
}

func NewCalendarHandler(calendars *services.CalendarService, holidayImports *services.HolidayService, countries *holidays.Client) *CalendarHandler {
	return &CalendarHandler{calendars: calendars, holidays: holidayImports, countries: countries}
}

type CreateCalendarRequest struct {
	Name        string            `json:"name" binding:"required"`
	Description string            `json:"description"`
	Visibility  models.Visibility `json:"visibility"`
}

type UpdateCalendarRequest struct {
	Name        string            `json:"name" binding:"required"`
	Description string            `json:"description"`
	Visibility  models.Visibility `json:"visibility"`
}

type CalendarResponse struct {
	ID          uint              `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Visibility  models.Visibility `json:"visibility"`
	OwnerID     uint              `json:"owner_id"`
	IsMain      bool              `json:"is_main"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

func toCalendarResponse(calendar *models.Calendar) CalendarResponse {
	return CalendarResponse{
		ID:          calendar.ID,
		Name:        calendar.Name,
		Description: calendar.Description,
		Visibility:  calendar.Visibility,
		OwnerID:     calendar.OwnerID,
		IsMain:      calendar.IsMain,
		CreatedAt:   calendar.CreatedAt,
		UpdatedAt:   calendar.UpdatedAt,
	}
}

func toCalendarResponses(calendars []models.Calendar) []CalendarResponse {
	response := make([]CalendarResponse, 0, len(calendars))
	for i := range calendars {
		response = append(response, toCalendarResponse(&calendars[i]))
	}
	return response
}

func (h *CalendarHandler) Create(ctx *gin.Context) {
	var req CreateCalendarRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	calendar, err := h.calendars.Create(services.CalendarInput{
		Name:        req.Name,
		Description: req.Description,
		Visibility:  req.Visibility,
	}, userID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, toCalendarResponse(calendar))
}

func (h *CalendarHandler) ListOwned(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	calendars, err := h.calendars.FindOwned(userID, ctx.Query("search"))

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, toCalendarResponses(calendars))
}

func (h *CalendarHandler) ListParticipating(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	calendars, err := h.calendars.FindParticipating(userID, ctx.Query("search"))

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, toCalendarResponses(calendars))
}

func (h *CalendarHandler) ListPublic(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	result, err := h.calendars.FindPublic(services.PublicCalendarQuery{
		Name:      ctx.Query("name"),
		SortBy:    ctx.DefaultQuery("sort_by", "created_at"),
		SortOrder: ctx.DefaultQuery("sort_order", "asc"),
		Page:      page,
		Limit:     limit,
	})

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"items": toCalendarResponses(result.Items),
		"meta":  result.Meta,
	})
}

func (h *CalendarHandler) Get(ctx *gin.Context) {
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

	calendar, err := h.calendars.FindByID(calendarID, userID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, toCalendarResponse(calendar))
}

func (h *CalendarHandler) Update(ctx *gin.Context) {
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

	var req UpdateCalendarRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	calendar, err := h.calendars.Update(calendarID, userID, services.UpdateCalendarInput{
		Name:        req.Name,
		Description: req.Description,
		Visibility:  req.Visibility,
	})

	if err != nil {
		respondError(ctx, err)
		return
	}

	BroadcastCalendarRefresh(strconv.FormatUint(uint64(calendar.ID), 10))

	ctx.JSON(http.StatusOK, toCalendarResponse(calendar))
}

func (h *CalendarHandler) Delete(ctx *gin.Context) {
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

	if err := h.calendars.Delete(calendarID, userID); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (h *CalendarHandler) Participate(ctx *gin.Context) {
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

	membership, err := h.calendars.Participate(calendarID, userID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"calendar_id": membership.CalendarID,
		"user_id":     membership.UserID,
		"role":        membership.Role,
	})
}

// ImportHolidays refreshes the user's "<CC> Holidays" calendar for one year.
func (h *CalendarHandler) ImportHolidays(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	year, err := strconv.Atoi(ctx.DefaultQuery("year", strconv.Itoa(time.Now().Year())))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid year"})
		return
	}

	calendar, err := h.holidays.ImportHolidays(ctx.Param("country_code"), year, userID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	BroadcastCalendarRefresh(strconv.FormatUint(uint64(calendar.ID), 10))

	ctx.JSON(http.StatusCreated, toCalendarResponse(calendar))
}

// ListHolidayCountries proxies the provider's country catalog so clients can
// offer a picker before importing.
func (h *CalendarHandler) ListHolidayCountries(ctx *gin.Context) {
	countries, err := h.countries.GetAvailableCountries()

	if err != nil {
		log.Printf("Failed to fetch available countries: %v", err)
		ctx.JSON(http.StatusBadGateway, gin.H{"error": "holiday provider unavailable"})
		return
	}

	ctx.JSON(http.StatusOK, countries)
}

func (h *CalendarHandler) ListHolidayImports(ctx *gin.Context) {
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

	imports, err := h.holidays.Imports(calendarID, userID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, imports)
}
