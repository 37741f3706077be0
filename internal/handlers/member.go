package handlers

import (
	"net/http"

	"github.com/chronograph-app/chronograph/internal/models"
	"github.com/chronograph-app/chronograph/internal/services"
	"github.com/chronograph-app/chronograph/internal/utils"
	"github.com/gin-gonic/gin"
)

type MemberHandler struct {
	members *services.MemberService
}

func NewMemberHandler(members *services.MemberService) *MemberHandler {
	return &MemberHandler{members: members}
}

type UpdateMemberRoleRequest struct {
	Role models.Role `json:"role" binding:"required"`
}

type MemberResponse struct {
	UserID uint        `json:"user_id"`
	Name   string      `json:"name"`
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
}

func (h *MemberHandler) ListCalendarMembers(ctx *gin.Context) {
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

	members, err := h.members.ListCalendarMembers(calendarID, userID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	response := make([]MemberResponse, 0, len(members))
	for _, member := range members {
		response = append(response, MemberResponse{
			UserID: member.UserID,
			Name:   member.User.Name,
			Email:  member.User.Email,
			Role:   member.Role,
		})
	}

	ctx.JSON(http.StatusOK, response)
}

func (h *MemberHandler) UpdateCalendarMemberRole(ctx *gin.Context) {
	calendarID, err := utils.GetCalendarID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	targetUserID, err := utils.GetUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actorID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req UpdateMemberRoleRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	membership, err := h.members.UpdateCalendarMemberRole(calendarID, targetUserID, actorID, req.Role)

	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"calendar_id": membership.CalendarID,
		"user_id":     membership.UserID,
		"role":        membership.Role,
	})
}

func (h *MemberHandler) RemoveCalendarMember(ctx *gin.Context) {
	calendarID, err := utils.GetCalendarID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	targetUserID, err := utils.GetUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actorID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if err := h.members.RemoveCalendarMember(calendarID, targetUserID, actorID); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (h *MemberHandler) ListEventMembers(ctx *gin.Context) {
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

	members, err := h.members.ListEventMembers(eventID, userID)

	if err != nil {
		respondError(ctx, err)
		return
	}

	response := make([]MemberResponse, 0, len(members))
	for _, member := range members {
		response = append(response, MemberResponse{
			UserID: member.UserID,
			Name:   member.User.Name,
			Email:  member.User.Email,
			Role:   member.Role,
		})
	}

	ctx.JSON(http.StatusOK, response)
}

func (h *MemberHandler) RemoveEventMember(ctx *gin.Context) {
	eventID, err := utils.GetEventID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	targetUserID, err := utils.GetUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actorID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if err := h.members.RemoveEventMember(eventID, targetUserID, actorID); err != nil {
		respondError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}
