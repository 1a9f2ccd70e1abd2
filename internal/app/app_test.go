package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	types "github.com/yungbote/coursecraft-backend/internal/domain"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	t.Setenv("STORAGE_EMULATOR_HOST", "")

	cfg := defaultConfig()
	cfg.LogMode = "development"
	cfg.Database.Driver = "sqlite"
	cfg.Database.Path = fmt.Sprintf("file:app_%s?mode=memory&cache=shared", uuid.NewString())
	cfg.Storage.EmulatorHost = "http://127.0.0.1:4443"
	cfg.Storage.ThumbnailBucket = "thumbs"

	a, err := New(context.Background(), cfg, true)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

func (a *App) seedUser(t *testing.T, role types.UserRole) (*types.User, string) {
	t.Helper()
	u := &types.User{Email: uuid.NewString() + "@example.com", FullName: "Seed " + string(role), Role: role}
	_, err := a.Repos.User.Create(context.Background(), nil, []*types.User{u})
	require.NoError(t, err)
	token, err := a.Services.Auth.IssueAccessToken(u.ID)
	require.NoError(t, err)
	return u, token
}

func (a *App) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)

	out := map[string]any{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec.Code, out
}

func TestAppHealth(t *testing.T) {
	a := newTestApp(t)
	code, _ := a.do(t, http.MethodGet, "/healthcheck", "", nil)
	require.Equal(t, http.StatusOK, code)
	code, _ = a.do(t, http.MethodGet, "/readyz", "", nil)
	require.Equal(t, http.StatusOK, code)
}

func TestAppCourseLifecycleOverHTTP(t *testing.T) {
	a := newTestApp(t)
	_, tutorToken := a.seedUser(t, types.RoleTutor)
	_, adminToken := a.seedUser(t, types.RoleAdmin)

	code, _ := a.do(t, http.MethodPost, "/api/tutor/courses", "", map[string]any{"title": "x"})
	require.Equal(t, http.StatusUnauthorized, code)

	code, body := a.do(t, http.MethodPost, "/api/tutor/courses", tutorToken, map[string]any{
		"title":       "Go for Tutors",
		"description": "Idiomatic Go",
		"level":       "BEGINNER",
		"price":       29,
		"modules": []map[string]any{
			{"title": "Basics", "lessons": []map[string]any{{"title": "Hello"}, {"title": "Types"}}},
		},
	})
	require.Equal(t, http.StatusCreated, code, body)
	course := body["course"].(map[string]any)
	courseID := course["id"].(string)
	require.Equal(t, "DRAFT", course["status"])
	require.EqualValues(t, 2, course["lesson_count"])

	// Drafts stay out of the public catalogue.
	code, _ = a.do(t, http.MethodGet, "/api/courses/"+courseID, "", nil)
	require.Equal(t, http.StatusNotFound, code)

	code, body = a.do(t, http.MethodPost, "/api/tutor/courses/"+courseID+"/submit", tutorToken, nil)
	require.Equal(t, http.StatusOK, code, body)
	require.Equal(t, "PENDING_APPROVAL", body["course"].(map[string]any)["status"])

	code, _ = a.do(t, http.MethodPost, "/api/admin/courses/"+courseID+"/decision", tutorToken, map[string]any{"decision": "APPROVED"})
	require.Equal(t, http.StatusForbidden, code)

	code, body = a.do(t, http.MethodPost, "/api/admin/courses/"+courseID+"/decision", adminToken, map[string]any{"decision": "APPROVED"})
	require.Equal(t, http.StatusOK, code, body)

	code, body = a.do(t, http.MethodGet, "/api/courses/search?title=go+FOR", "", nil)
	require.Equal(t, http.StatusOK, code)
	require.EqualValues(t, 1, body["total"])

	code, body = a.do(t, http.MethodGet, "/api/tutor/courses/"+courseID+"/reviews", tutorToken, nil)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, body["reviews"], 1)
}
