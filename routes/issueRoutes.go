package routes

import (
	"citysnap-be/controllers"

	"github.com/gin-gonic/gin"
)

// IssueRoutes sets up the issue routes
func IssueRoutes(r *gin.Engine, ic *controllers.IssueController, g Guards) {
	issue := r.Group("/api/issues")
	{
		issue.GET("/public", g.OptionalAuth, ic.GetPublicIssues)
		issue.GET("", g.Auth, ic.GetMyIssues)
		issue.POST("", g.Auth, g.IssueLimit, ic.CreateIssue)
		issue.GET("/:id", g.OptionalAuth, ic.GetIssue)
		issue.PUT("/:id", g.Auth, ic.UpdateIssue)
		issue.DELETE("/:id", g.Auth, ic.DeleteIssue)
	}
}
