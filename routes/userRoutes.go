package routes

import (
	"citysnap-be/controllers"

	"github.com/gin-gonic/gin"
)

func UserRoutes(r *gin.Engine, uc *controllers.UserController, g Guards) {
	auth := r.Group("/api/auth")
	{
		auth.GET("/me", g.Auth, uc.GetMe)
	}
}
