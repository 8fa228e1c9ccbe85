package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"citysnap-be/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// respondError writes err with the status its kind maps to.
func respondError(c *gin.Context, log zerolog.Logger, err error) {
	var (
		verr   *services.ValidationError
		authz  *services.AuthorizationError
		serr   *services.StructuralError
		closed *services.ClosedIssueError
	)
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, verr)
	case errors.As(err, &authz):
		c.JSON(http.StatusForbidden, gin.H{"error": authz.Error()})
	case errors.As(err, &serr):
		c.JSON(http.StatusConflict, gin.H{"error": serr.Error(), "kind": serr.Kind})
	case errors.As(err, &closed):
		c.JSON(http.StatusConflict, gin.H{"error": closed.Error()})
	case services.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// paramID parses the named path parameter as a positive id.
func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return id, true
}

// queryID parses an optional id query parameter.
func queryID(c *gin.Context, name string) (*int64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return nil, false
	}
	return &id, true
}
