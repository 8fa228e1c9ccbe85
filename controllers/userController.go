package controllers

import (
	"net/http"

	"citysnap-be/middlewares"
	"citysnap-be/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type UserController struct {
	users *services.UserService
	log   zerolog.Logger
}

func NewUserController(users *services.UserService, log zerolog.Logger) *UserController {
	return &UserController{users: users, log: log}
}

// GetMe returns the user the token was issued to.
func (uc *UserController) GetMe(c *gin.Context) {
	actor := middlewares.ActorFrom(c)
	if actor == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	user, err := uc.users.Get(c.Request.Context(), actor.UserID)
	if err != nil {
		respondError(c, uc.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
