package utils

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
)

func GetIDParam(ctx *gin.Context, name string) (uint, error) {
	raw := ctx.Param(name)

	if raw == "" {
		return 0, errors.New(name + " not found")
	}

	id, err := strconv.ParseUint(raw, 10, 32)

	if err != nil {
		return 0, errors.New("invalid " + name)
	}

	return uint(id), nil
}

func GetCalendarID(ctx *gin.Context) (uint, error) {
	return GetIDParam(ctx, "calendar_id")
}

func GetEventID(ctx *gin.Context) (uint, error) {
	return GetIDParam(ctx, "event_id")
}

func GetInvitationID(ctx *gin.Context) (uint, error) {
	return GetIDParam(ctx, "invitation_id")
}

func GetUserID(ctx *gin.Context) (uint, error) {
	return GetIDParam(ctx, "user_id")
}
