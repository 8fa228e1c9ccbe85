package routes

import (
	"citysnap-be/controllers"

	"github.com/gin-gonic/gin"
)

// CommentRoutes nests comments under their issue.
func CommentRoutes(r *gin.Engine, cc *controllers.CommentController, g Guards) {
	comments := r.Group("/api/issues/:id/comments")
	{
		comments.GET("", g.OptionalAuth, cc.ListComments)
		comments.POST("", g.Auth, cc.CreateComment)
		comments.DELETE("/:commentId", g.Auth, cc.DeleteComment)
	}
}
