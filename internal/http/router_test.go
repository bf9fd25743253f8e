package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keyregistry/internal/activationkey"
	"keyregistry/internal/auth"
	"keyregistry/internal/models"
	"keyregistry/internal/seed"
	"keyregistry/internal/testutil"
)

const secret = "test-secret"

func call(t *testing.T, r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
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
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func issue(t *testing.T, user *models.User) string {
	t.Helper()
	token, err := auth.IssueToken(user, secret, time.Hour)
	require.NoError(t, err)
	return token
}

func TestRouter_KeyLifecycle(t *testing.T) {
	gin.SetMode(gin.TestMode)
	gdb := testutil.NewDB(t)
	require.NoError(t, seed.FirstSetup(gdb))
	r := NewRouter(gdb, activationkey.New(gdb), secret)

	w := call(t, r, http.MethodPost, "/api/v1/activation-keys", "", gin.H{})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = call(t, r, http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": seed.AdminEmail, "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = call(t, r, http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": seed.AdminEmail, "password": seed.AdminPass})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	require.NotEmpty(t, login.Token)

	w = call(t, r, http.MethodPost, "/api/v1/activation-keys", login.Token, gin.H{"note": "lab", "universal_default": true})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		ActivationKey struct {
			Key     string `json:"key"`
			TokenID int64  `json:"token_id"`
		} `json:"activation_key"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	var org models.Organization
	require.NoError(t, gdb.Where("slug = ?", "default").First(&org).Error)
	require.NotNil(t, org.DefaultTokenID)
	assert.Equal(t, created.ActivationKey.TokenID, *org.DefaultTokenID)

	w = call(t, r, http.MethodGet, "/api/v1/activation-keys/"+created.ActivationKey.Key, login.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = call(t, r, http.MethodPost, "/agents/register", "", gin.H{
		"activation_key": created.ActivationKey.Key,
		"hostname":       "db01",
		"ip":             "10.1.0.3",
	})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = call(t, r, http.MethodGet, "/api/v1/audit", login.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "server.register")
	assert.Contains(t, w.Body.String(), "activation_key.create")

	w = call(t, r, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "keyregistry_activation_keys_created_total"))
}

func TestRouter_RequiresPermission(t *testing.T) {
	gin.SetMode(gin.TestMode)
	gdb := testutil.NewDB(t)
	require.NoError(t, seed.FirstSetup(gdb))
	r := NewRouter(gdb, activationkey.New(gdb), secret)

	var org models.Organization
	require.NoError(t, gdb.Where("slug = ?", "default").First(&org).Error)
	user := testutil.User(t, gdb, &org, "nobody@example.com")
	token := issue(t, user)

	w := call(t, r, http.MethodPost, "/api/v1/activation-keys", token, gin.H{})
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "activationkeys:write")
}
