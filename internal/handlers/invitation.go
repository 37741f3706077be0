package handlers

import (
	"net/http"
	"time"

	"github.com/chronograph-app/chronograph/internal/models"
	"github.com/chronograph-app/chronograph/internal/services"
	"github.com/chronograph-app/chronograph/internal/utils"
	"github.com/gin-gonic/gin"
)

type InvitationHandler struct {
	invitations *services.InvitationService
}

func NewInvitationHandler(invitations *services.InvitationService) *InvitationHandler {
	return &InvitationHandler{invitations: invitations}
}

type CreateInvitationRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type CalendarInvitationResponse struct {
	ID         uint                    `json:"id"`
	CalendarID uint                    `json:"calendar_id"`
	UserID     uint                    `json:"user_id"`
	Status     models.InvitationStatus `json:"status"`
	Token      string                  `json:"token"`
	CreatedAt  time.Time               `json:"created_at"`
}

type EventInvitationResponse struct {
	ID        uint                    `json:"id"`
	EventID   uint                    `json:"event_id"`
	UserID    uint                    `json:"user_id"`
	Status    models.InvitationStatus `json:"status"`
	Token     string                  `json:"token"`
	CreatedAt time.Time               `json:"created_at"`
}

func toCalendarInvitationResponse(inv *models.CalendarInvitation) CalendarInvitationResponse {
	return CalendarInvitationResponse{
		ID:         inv.ID,
		CalendarID: inv.CalendarID,
		UserID:     inv.UserID,
		Status:     inv.Status,
		Token:      inv.Token,
		CreatedAt:  inv.CreatedAt,
	}
}

func toEventInvitationResponse(inv *models.EventInvitation) EventInvitationResponse {
	return EventInvitationResponse{
		ID:        inv.ID,
		EventID:   inv.EventID,
		UserID:    inv.UserID,
		Status:    inv.Status,
		Token:     inv.Token,
		CreatedAt: inv.CreatedAt,
	}
}

func (h *InvitationHandler) InviteToCalendar(ctx *gin.Context) {
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

	var req CreateInvitationRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	invitation, err := h.invitations.InviteToCalendar(calendarID, req.Email, userID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, toCalendarInvitationResponse(invitation))
}

func (h *InvitationHandler) ListCalendarInvitations(ctx *gin.Context) {
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

	invitations, err := h.invitations.CalendarInvitations(calendarID, userID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	response := make([]CalendarInvitationResponse, 0, len(invitations))
	for i := range invitations {
		response = append(response, toCalendarInvitationResponse(&invitations[i]))
	}

	ctx.JSON(http.StatusOK, response)
}

func (h *InvitationHandler) MyCalendarInvitations(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	invitations, err := h.invitations.MyCalendarInvitations(userID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	type pendingCalendarInvitation struct {
		CalendarInvitationResponse
		Calendar CalendarResponse `json:"calendar"`
	}

	response := make([]pendingCalendarInvitation, 0, len(invitations))
	for i := range invitations {
		response = append(response, pendingCalendarInvitation{
			CalendarInvitationResponse: toCalendarInvitationResponse(&invitations[i]),
			Calendar:                   toCalendarResponse(&invitations[i].Calendar),
		})
	}

	ctx.JSON(http.StatusOK, response)
}

func (h *InvitationHandler) AcceptCalendarInvitation(ctx *gin.Context) {
	h.respondCalendar(ctx, h.invitations.AcceptCalendarInvitation)
}

func (h *InvitationHandler) DeclineCalendarInvitation(ctx *gin.Context) {
	h.respondCalendar(ctx, h.invitations.DeclineCalendarInvitation)
}

func (h *InvitationHandler) respondCalendar(ctx *gin.Context, respond func(uint, uint) (*models.CalendarInvitation, error)) {
	invitationID, err := utils.GetInvitationID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	invitation, err := respond(invitationID, userID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"invitation": toCalendarInvitationResponse(invitation),
		"calendar":   toCalendarResponse(&invitation.Calendar),
	})
}

// ResolveCalendarInvitation lets the emailed link land on the invitation
// without knowing its numeric id.
func (h *InvitationHandler) ResolveCalendarInvitation(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	invitation, err := h.invitations.FindCalendarInvitationByToken(ctx.Param("token"))

	if err != nil {
		respondError(ctx, err)
		return
	}

	if invitation.UserID != userID {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "you can only respond to your own invitations"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"invitation": toCalendarInvitationResponse(invitation),
		"calendar":   toCalendarResponse(&invitation.Calendar),
	})
}

func (h *InvitationHandler) InviteToEvent(ctx *gin.Context) {
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

	var req CreateInvitationRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	invitation, err := h.invitations.InviteToEvent(eventID, req.Email, userID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, toEventInvitationResponse(invitation))
}

func (h *InvitationHandler) ListEventInvitations(ctx *gin.Context) {
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

	invitations, err := h.invitations.EventInvitations(eventID, userID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	response := make([]EventInvitationResponse, 0, len(invitations))
	for i := range invitations {
		response = append(response, toEventInvitationResponse(&invitations[i]))
	}

	ctx.JSON(http.StatusOK, response)
}

func (h *InvitationHandler) MyEventInvitations(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	invitations, err := h.invitations.MyEventInvitations(userID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	type pendingEventInvitation struct {
		EventInvitationResponse
		Event EventResponse `json:"event"`
	}

	response := make([]pendingEventInvitation, 0, len(invitations))
	for i := range invitations {
		response = append(response, pendingEventInvitation{
			EventInvitationResponse: toEventInvitationResponse(&invitations[i]),
			Event:                   toEventResponse(&invitations[i].Event),
		})
	}

	ctx.JSON(http.StatusOK, response)
}

func (h *InvitationHandler) AcceptEventInvitation(ctx *gin.Context) {
	h.respondEvent(ctx, h.invitations.AcceptEventInvitation)
}

func (h *InvitationHandler) DeclineEventInvitation(ctx *gin.Context) {
	h.respondEvent(ctx, h.invitations.DeclineEventInvitation)
}

func (h *InvitationHandler) respondEvent(ctx *gin.Context, respond func(uint, uint) (*models.EventInvitation, error)) {
	invitationID, err := utils.GetInvitationID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	invitation, err := respond(invitationID, userID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"invitation": toEventInvitationResponse(invitation),
		"event":      toEventResponse(&invitation.Event),
	})
}

func (h *InvitationHandler) ResolveEventInvitation(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	invitation, err := h.invitations.FindEventInvitationByToken(ctx.Param("token"))

	if err != nil {
		respondError(ctx, err)
		return
	}

	if invitation.UserID != userID {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "you can only respond to your own invitations"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"invitation": toEventInvitationResponse(invitation),
		"event":      toEventResponse(&invitation.Event),
	})
}
