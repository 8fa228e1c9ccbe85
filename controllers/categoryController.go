package controllers

import (
	"net/http"

	"citysnap-be/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type CategoryController struct {
	categories *services.CategoryService
	log        zerolog.Logger
}

func NewCategoryController(categories *services.CategoryService, log zerolog.Logger) *CategoryController {
	return &CategoryController{categories: categories, log: log}
}

// GetTree returns the whole taxonomy, nested.
func (cc *CategoryController) GetTree(c *gin.Context) {
	out, err := cc.categories.Tree(c.Request.Context())
	if err != nil {
		respondError(c, cc.log, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// GetLeaves returns the active categories an issue can be filed under.
func (cc *CategoryController) GetLeaves(c *gin.Context) {
	out, err := cc.categories.Leaves(c.Request.Context(), true)
	if err != nil {
		respondError(c, cc.log, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (cc *CategoryController) GetCategory(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	out, err := cc.categories.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, cc.log, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (cc *CategoryController) CreateCategory(c *gin.Context) {
	var input services.CategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	out, err := cc.categories.Create(c.Request.Context(), input)
	if err != nil {
		respondError(c, cc.log, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (cc *CategoryController) UpdateCategory(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input services.CategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	out, err := cc.categories.Update(c.Request.Context(), id, input)
	if err != nil {
		respondError(c, cc.log, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (cc *CategoryController) DeleteCategory(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := cc.categories.Delete(c.Request.Context(), id); err != nil {
		respondError(c, cc.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully"})
}
