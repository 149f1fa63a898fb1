package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const secret = "test-secret"

func signToken(t *testing.T, key string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return token
}

func claimsFor(id primitive.ObjectID, role string) jwt.MapClaims {
	return jwt.MapClaims{
		"sub":    id.Hex(),
		"userId": id.Hex(),
		"role":   role,
		"exp":    time.Now().Add(time.Minute).Unix(),
	}
}

func newGuardedRouter(policy Policy) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", AuthGuard(secret, policy), func(c *gin.Context) {
		id, ok := UserID(c)
		c.JSON(http.StatusOK, gin.H{"userId": id.Hex(), "ok": ok, "role": Role(c)})
	})
	return r
}

func TestAuthGuard(t *testing.T) {
	userID := primitive.NewObjectID()
	expired := claimsFor(userID, "user")
	expired["exp"] = time.Now().Add(-time.Minute).Unix()

	tests := []struct {
		name   string
		policy Policy
		header string
		want   int
	}{
		{"public without token", Public, "", http.StatusOK},
		{"user without token", User, "", http.StatusUnauthorized},
		{"malformed header", User, "Token abc", http.StatusUnauthorized},
		{"wrong secret", User, "Bearer " + signToken(t, "other", claimsFor(userID, "user")), http.StatusUnauthorized},
		{"expired", User, "Bearer " + signToken(t, secret, expired), http.StatusUnauthorized},
		{"missing userId", User, "Bearer " + signToken(t, secret, jwt.MapClaims{"role": "user"}), http.StatusUnauthorized},
		{"user ok", User, "Bearer " + signToken(t, secret, claimsFor(userID, "user")), http.StatusOK},
		{"admin route as user", Admin, "Bearer " + signToken(t, secret, claimsFor(userID, "user")), http.StatusForbidden},
		{"admin ok", Admin, "bearer " + signToken(t, secret, claimsFor(userID, "admin")), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			newGuardedRouter(tt.policy).ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestAuthGuardInjectsIdentity(t *testing.T) {
	userID := primitive.NewObjectID()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, secret, claimsFor(userID, "admin")))
	rec := httptest.NewRecorder()
	newGuardedRouter(Admin).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"userId":"`+userID.Hex()+`","ok":true,"role":"admin"}`, rec.Body.String())
}

func TestCallbackAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/cb", CallbackAuth("hook-secret"), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for header, want := range map[string]int{
		"":            http.StatusUnauthorized,
		"nope":        http.StatusUnauthorized,
		"hook-secret": http.StatusNoContent,
	} {
		req := httptest.NewRequest(http.MethodPost, "/cb", nil)
		if header != "" {
			req.Header.Set(CallbackTokenHeader, header)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, "header %q", header)
	}

	open := gin.New()
	open.POST("/cb", CallbackAuth(""), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	req := httptest.NewRequest(http.MethodPost, "/cb", nil)
	rec := httptest.NewRecorder()
	open.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "an unset secret rejects everything")
}
