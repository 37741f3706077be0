package handlers

import (
	"log"
	"net/http"

	"github.com/chronograph-app/chronograph/internal/apperr"
	"github.com/gin-gonic/gin"
)

// respondError maps a service error to its HTTP status. Internal errors are
// logged and surfaced as a generic message; everything else keeps its
// specific reason.
func respondError(ctx *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindForbidden:
		status = http.StatusForbidden
	case apperr.KindConflict:
		status = http.StatusConflict
	case apperr.KindValidation:
		status = http.StatusBadRequest
	default:
		log.Printf("Internal error: %v", err)
	}

	ctx.JSON(status, gin.H{"error": apperr.ReasonOf(err)})
}
