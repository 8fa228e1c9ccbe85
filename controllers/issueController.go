package controllers

import (
	"net/http"
	"strconv"

	"citysnap-be/middlewares"
	"citysnap-be/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type IssueController struct {
	issues *services.IssueService
	geo    *services.GeoQuery
	log    zerolog.Logger
}

func NewIssueController(issues *services.IssueService, geo *services.GeoQuery, log zerolog.Logger) *IssueController {
	return &IssueController{issues: issues, geo: geo, log: log}
}

// CreateIssue handles the creation of a new issue
func (ic *IssueController) CreateIssue(c *gin.Context) {
	var input services.ChangeSet
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	out, err := ic.issues.Create(c.Request.Context(), middlewares.ActorFrom(c), input)
	if err != nil {
		respondError(c, ic.log, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

// GetPublicIssues serves the map feed: located issues, newest first, 20 per page.
func (ic *IssueController) GetPublicIssues(c *gin.Context) {
	categoryID, ok := queryID(c, "category_id")
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))

	out, err := ic.geo.ListPublic(c.Request.Context(), services.PublicFilter{
		Status:     c.Query("status"),
		CategoryID: categoryID,
		Bounds:     c.Query("bounds"),
		Page:       page,
	})
	if err != nil {
		respondError(c, ic.log, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// GetMyIssues lists the caller's own issues.
func (ic *IssueController) GetMyIssues(c *gin.Context) {
	categoryID, ok := queryID(c, "category_id")
	if !ok {
		return
	}
	out, err := ic.issues.ListMine(c.Request.Context(), middlewares.ActorFrom(c), services.MineFilter{
		Status:     c.Query("status"),
		CategoryID: categoryID,
	})
	if err != nil {
		respondError(c, ic.log, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (ic *IssueController) GetIssue(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	out, err := ic.issues.Get(c.Request.Context(), middlewares.ActorFrom(c), id)
	if err != nil {
		respondError(c, ic.log, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (ic *IssueController) UpdateIssue(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input services.ChangeSet
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	out, err := ic.issues.Update(c.Request.Context(), middlewares.ActorFrom(c), id, input)
	if err != nil {
		respondError(c, ic.log, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (ic *IssueController) DeleteIssue(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := ic.issues.Delete(c.Request.Context(), middlewares.ActorFrom(c), id); err != nil {
		respondError(c, ic.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Issue deleted successfully"})
}
