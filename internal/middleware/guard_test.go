package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AdamBeresnev/aibuilders/internal/httputil"
	users "github.com/AdamBeresnev/aibuilders/internal/user"
	"github.com/AdamBeresnev/aibuilders/internal/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testUser(role *users.Role) *users.User {
	return &users.User{ID: uuid.New(), Username: "tester", Role: role}
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("guarded content"))
})

func serveGuarded(guard func(http.Handler) http.Handler, user *users.User, target string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	if user != nil {
		req = req.WithContext(WithUser(req.Context(), user))
	}
	rec := httptest.NewRecorder()
	guard(okHandler).ServeHTTP(rec, req)
	return rec
}

func TestResolve(t *testing.T) {
	testCases := []struct {
		name     string
		user     *users.User
		required users.Role
		expected Decision
	}{
		{name: "no session", user: nil, required: users.RoleCandidate, expected: DecisionLogin},
		{name: "no role metadata", user: testUser(nil), required: users.RoleCandidate, expected: DecisionLogin},
		{name: "sponsor on candidate route", user: testUser(utils.Ptr(users.RoleSponsor)), required: users.RoleCandidate, expected: DecisionDashboard},
		{name: "candidate on sponsor route", user: testUser(utils.Ptr(users.RoleCandidate)), required: users.RoleSponsor, expected: DecisionDashboard},
		{name: "matching role", user: testUser(utils.Ptr(users.RoleSponsor)), required: users.RoleSponsor, expected: DecisionAllow},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Resolve(tc.user, tc.required))
		})
	}
}

func TestRequireRoleRedirectsToOwnDashboard(t *testing.T) {
	for _, role := range []users.Role{users.RoleCandidate, users.RoleSponsor} {
		other := users.RoleSponsor
		if role == users.RoleSponsor {
			other = users.RoleCandidate
		}

		rec := serveGuarded(RequireRole(other), testUser(utils.Ptr(role)), "/guarded", nil)
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/"+string(role)+"-dashboard", rec.Header().Get("Location"))
		assert.NotContains(t, rec.Body.String(), "guarded content")
	}
}

func TestRequireRolePreservesOriginalPath(t *testing.T) {
	rec := serveGuarded(RequireRole(users.RoleCandidate), nil, "/submit/c1?step=2", nil)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?redirect=%2Fsubmit%2Fc1%3Fstep%3D2", rec.Header().Get("Location"))
}

func TestRequireRoleWithoutRoleMetadata(t *testing.T) {
	rec := serveGuarded(RequireRole(users.RoleCandidate), testUser(nil), "/candidate-dashboard", nil)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?redirect=%2Fcandidate-dashboard", rec.Header().Get("Location"))
}

func TestRequireRoleAllows(t *testing.T) {
	rec := serveGuarded(RequireRole(users.RoleCandidate), testUser(utils.Ptr(users.RoleCandidate)), "/candidate-dashboard", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "guarded content", rec.Body.String())
}

func TestRequireRoleHtmx(t *testing.T) {
	rec := serveGuarded(RequireRole(users.RoleSponsor), nil, "/sponsor-dashboard", map[string]string{"HX-Request": "true"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/login?redirect=%2Fsponsor-dashboard", rec.Header().Get("HX-Redirect"))
	assert.Empty(t, rec.Body.String())
}

func TestRequireAPIRole(t *testing.T) {
	rec := serveGuarded(RequireAPIRole(users.RoleSponsor), nil, "/api/challenges", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	var body httputil.ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "/login?redirect=%2Fapi%2Fchallenges", body.Redirect)

	rec = serveGuarded(RequireAPIRole(users.RoleSponsor), testUser(utils.Ptr(users.RoleCandidate)), "/api/challenges", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "/candidate-dashboard", body.Redirect)

	rec = serveGuarded(RequireAPIRole(users.RoleSponsor), testUser(utils.Ptr(users.RoleSponsor)), "/api/challenges", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
