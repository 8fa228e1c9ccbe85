package routes

import (
	"net/http"

	"citysnap-be/controllers"

	"github.com/gin-gonic/gin"
)

// Guards are the middlewares route groups pick from.
type Guards struct {
	Auth         gin.HandlerFunc
	OptionalAuth gin.HandlerFunc
	AdminOnly    gin.HandlerFunc
	IssueLimit   gin.HandlerFunc
}

// Controllers are the handlers mounted by Setup.
type Controllers struct {
	Issues     *controllers.IssueController
	Comments   *controllers.CommentController
	Categories *controllers.CategoryController
	Users      *controllers.UserController
}

// Setup mounts every route on r.
func Setup(r *gin.Engine, ctrl Controllers, g Guards) {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	CategoryRoutes(r, ctrl.Categories, g)
	IssueRoutes(r, ctrl.Issues, g)
	CommentRoutes(r, ctrl.Comments, g)
	UserRoutes(r, ctrl.Users, g)
}
