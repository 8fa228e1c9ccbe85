package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"citysnap-be/controllers"
	"citysnap-be/middlewares"
	"citysnap-be/models"
	"citysnap-be/routes"
	"citysnap-be/services"
	"citysnap-be/store/storetest"
	authUtils "citysnap-be/utils"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

type server struct {
	t      *testing.T
	router *gin.Engine
	leaf   int64

	citizen, neighbour, officer, admin string
}

func newServer(t *testing.T) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	log := zerolog.Nop()

	st := storetest.SQLite(t)

	categories := services.NewCategoryService(st, log)
	issues := services.NewIssueService(st, log)
	comments := services.NewCommentService(st, log)
	users := services.NewUserService(st, log)
	geo := services.NewGeoQuery(st, log)

	_, err := categories.Seed(ctx, services.DefaultTaxonomy)
	require.NoError(t, err)
	leaves, err := categories.Leaves(ctx, true)
	require.NoError(t, err)
	require.NotEmpty(t, leaves)

	s := &server{t: t, leaf: leaves[0].ID}
	token := func(email string, role models.Role) string {
		u, _, err := users.Ensure(ctx, services.UserInput{Name: email, Email: email, Role: role})
		require.NoError(t, err)
		tok, err := authUtils.GenerateToken(u.ID, u.Role, secret)
		require.NoError(t, err)
		return tok
	}
	s.citizen = token("citizen@example.com", models.Citizen)
	s.neighbour = token("neighbour@example.com", models.Citizen)
	s.officer = token("officer@example.com", models.Officer)
	s.admin = token("admin@example.com", models.Admin)

	r := gin.New()
	r.Use(middlewares.RequestLogger(log))
	routes.Setup(r, routes.Controllers{
		Issues:     controllers.NewIssueController(issues, geo, log),
		Comments:   controllers.NewCommentController(comments, log),
		Categories: controllers.NewCategoryController(categories, log),
		Users:      controllers.NewUserController(users, log),
	}, routes.Guards{
		Auth:         middlewares.AuthMiddleware(secret, log),
		OptionalAuth: middlewares.OptionalAuth(secret, log),
		AdminOnly:    middlewares.RequireRole(models.Admin),
		IssueLimit:   func(c *gin.Context) { c.Next() },
	})
	s.router = r
	return s
}

// do sends a request and decodes the JSON response into a map.
func (s *server) do(method, path, token string, body interface{}) (int, map[string]interface{}) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var out map[string]interface{}
	if w.Body.Len() > 0 && w.Body.Bytes()[0] == '{' {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w.Code, out
}

func (s *server) located(desc string, lat, lng float64) map[string]interface{} {
	return map[string]interface{}{
		"description":   desc,
		"categoryId":    s.leaf,
		"latitude":      lat,
		"longitude":     lng,
		"streetAddress": "1 Main St",
	}
}

func (s *server) createIssue(token string, body map[string]interface{}) int64 {
	s.t.Helper()
	code, out := s.do(http.MethodPost, "/api/issues", token, body)
	require.Equal(s.t, http.StatusCreated, code, out)
	issue := out["issue"].(map[string]interface{})
	return int64(issue["id"].(float64))
}

func TestPing(t *testing.T) {
	s := newServer(t)
	code, out := s.do(http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "pong", out["message"])
}

func TestMe(t *testing.T) {
	s := newServer(t)

	code, _ := s.do(http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	code, _ = s.do(http.MethodGet, "/api/auth/me", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, out := s.do(http.MethodGet, "/api/auth/me", s.officer, nil)
	require.Equal(t, http.StatusOK, code)
	user := out["user"].(map[string]interface{})
	assert.Equal(t, "officer@example.com", user["email"])
	assert.Equal(t, "officer", user["role"])
}

func TestCreateIssue(t *testing.T) {
	s := newServer(t)

	body := s.located("Car on the hydrant", 40.7128, -74.0060)
	body["status"] = "closed"
	code, out := s.do(http.MethodPost, "/api/issues", s.citizen, body)
	require.Equal(t, http.StatusCreated, code)
	issue := out["issue"].(map[string]interface{})
	assert.Equal(t, "received", issue["status"])
	assert.Contains(t, out["decisions"], map[string]interface{}{"field": "status", "decision": "dropped"})

	code, _ = s.do(http.MethodPost, "/api/issues", "", body)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, out = s.do(http.MethodPost, "/api/issues", s.citizen, map[string]interface{}{
		"description": "half a location",
		"latitude":    40.7,
	})
	require.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, out["errors"], "location")

	code, _ = s.do(http.MethodPost, "/api/issues", s.citizen, "not an object")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestIssueAccess(t *testing.T) {
	s := newServer(t)
	private := s.createIssue(s.citizen, map[string]interface{}{"description": "no location yet"})
	path := fmt.Sprintf("/api/issues/%d", private)

	code, _ := s.do(http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = s.do(http.MethodGet, path, s.neighbour, nil)
	assert.Equal(t, http.StatusForbidden, code)
	code, out := s.do(http.MethodGet, path, s.officer, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Uncategorized", out["categoryFullName"])

	code, _ = s.do(http.MethodGet, "/api/issues/9999", s.officer, nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = s.do(http.MethodGet, "/api/issues/abc", s.officer, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(http.MethodPut, path, s.neighbour, map[string]interface{}{"description": "mine now"})
	assert.Equal(t, http.StatusForbidden, code)

	code, out = s.do(http.MethodPut, path, s.officer, map[string]interface{}{"status": "assigned"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "assigned", out["issue"].(map[string]interface{})["status"])

	code, _ = s.do(http.MethodDelete, path, s.officer, nil)
	assert.Equal(t, http.StatusForbidden, code)
	code, out = s.do(http.MethodDelete, path, s.citizen, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Issue deleted successfully", out["message"])
}

func TestPublicFeed(t *testing.T) {
	s := newServer(t)
	ny := s.createIssue(s.citizen, s.located("New York", 40.7128, -74.0060))
	s.createIssue(s.citizen, s.located("Chicago", 41.8781, -87.6298))
	s.createIssue(s.citizen, map[string]interface{}{"description": "unlocated"})

	code, out := s.do(http.MethodGet, "/api/issues/public", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, out["items"], 2)
	assert.Equal(t, false, out["hasMore"])

	bounds := url.QueryEscape(`{"south":40.70,"west":-74.02,"north":40.72,"east":-74.00}`)
	code, out = s.do(http.MethodGet, "/api/issues/public?bounds="+bounds, "", nil)
	require.Equal(t, http.StatusOK, code)
	items := out["items"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, float64(ny), items[0].(map[string]interface{})["id"])

	// malformed bounds are ignored
	code, out = s.do(http.MethodGet, "/api/issues/public?bounds=nope", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, out["items"], 2)

	code, _ = s.do(http.MethodGet, "/api/issues/public?status=bogus", "", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	code, _ = s.do(http.MethodGet, "/api/issues", s.citizen, nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestCommentCloses(t *testing.T) {
	s := newServer(t)
	id := s.createIssue(s.citizen, s.located("Blocked crosswalk", 40.7128, -74.0060))
	path := fmt.Sprintf("/api/issues/%d/comments", id)

	code, out := s.do(http.MethodPost, path, s.citizen, map[string]interface{}{"body": "still there", "closeIssue": true})
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "received", out["issueStatus"])
	assert.Equal(t, "dropped", out["close"].(map[string]interface{})["decision"])

	code, out = s.do(http.MethodPost, path, s.citizen, map[string]interface{}{"body": ""})
	require.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, out["errors"], "body")

	code, out = s.do(http.MethodPost, path, s.officer, map[string]interface{}{"body": "towed", "closeIssue": true})
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "closed", out["issueStatus"])

	code, _ = s.do(http.MethodPost, path, s.citizen, map[string]interface{}{"body": "thanks"})
	assert.Equal(t, http.StatusConflict, code)

	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var comments []models.Comment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &comments))
	require.Len(t, comments, 2)

	code, _ = s.do(http.MethodDelete, fmt.Sprintf("%s/%d", path, comments[0].ID), s.neighbour, nil)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = s.do(http.MethodDelete, fmt.Sprintf("%s/%d", path, comments[0].ID), s.citizen, nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestCategoryWrites(t *testing.T) {
	s := newServer(t)
	body := map[string]interface{}{"name": "Noise", "position": 5}

	code, _ := s.do(http.MethodPost, "/api/categories", s.officer, body)
	assert.Equal(t, http.StatusForbidden, code)

	code, out := s.do(http.MethodPost, "/api/categories", s.admin, body)
	require.Equal(t, http.StatusCreated, code)
	noise := int64(out["id"].(float64))

	code, out = s.do(http.MethodPost, "/api/categories", s.admin, map[string]interface{}{"position": 1})
	require.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, out["errors"], "name")

	s.createIssue(s.citizen, s.located("Double parked", 40.7128, -74.0060))
	code, out = s.do(http.MethodGet, fmt.Sprintf("/api/categories/%d", s.leaf), "", nil)
	require.Equal(t, http.StatusOK, code)
	ancestors := out["ancestors"].([]interface{})
	require.Len(t, ancestors, 2)
	root := int64(ancestors[0].(map[string]interface{})["id"].(float64))

	code, out = s.do(http.MethodDelete, fmt.Sprintf("/api/categories/%d", root), s.admin, nil)
	require.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "has_issues", out["kind"])

	code, _ = s.do(http.MethodDelete, fmt.Sprintf("/api/categories/%d", noise), s.admin, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = s.do(http.MethodGet, fmt.Sprintf("/api/categories/%d", noise), "", nil)
	assert.Equal(t, http.StatusNotFound, code)
}
