package controllers

import (
	"net/http"

	"citysnap-be/middlewares"
	"citysnap-be/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type CommentController struct {
	comments *services.CommentService
	log      zerolog.Logger
}

func NewCommentController(comments *services.CommentService, log zerolog.Logger) *CommentController {
	return &CommentController{comments: comments, log: log}
}

func (cc *CommentController) ListComments(c *gin.Context) {
	issueID, ok := paramID(c, "id")
	if !ok {
		return
	}
	out, err := cc.comments.List(c.Request.Context(), middlewares.ActorFrom(c), issueID)
	if err != nil {
		respondError(c, cc.log, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// CreateComment posts a comment; staff may close the issue with closeIssue.
func (cc *CommentController) CreateComment(c *gin.Context) {
	issueID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input struct {
		Body       string `json:"body"`
		CloseIssue bool   `json:"closeIssue"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	out, err := cc.comments.Create(c.Request.Context(), middlewares.ActorFrom(c), issueID, input.Body, input.CloseIssue)
	if err != nil {
		respondError(c, cc.log, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (cc *CommentController) DeleteComment(c *gin.Context) {
	issueID, ok := paramID(c, "id")
	if !ok {
		return
	}
	commentID, ok := paramID(c, "commentId")
	if !ok {
		return
	}
	if err := cc.comments.Delete(c.Request.Context(), middlewares.ActorFrom(c), issueID, commentID); err != nil {
		respondError(c, cc.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted successfully"})
}
