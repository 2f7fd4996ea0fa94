package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testKey    = "test-signing-key"
	testIssuer = "attendbot"
)

func TestIssueParse(t *testing.T) {
	tok, err := Issue("123", "alice", testIssuer, testKey, time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), tok.ExpiresAt, 5*time.Second)

	claims, err := Parse(tok.Value, testKey, testIssuer)
	require.NoError(t, err)
	assert.Equal(t, "123", claims.Subject)
	assert.Equal(t, "alice", claims.Name)
}

func TestParse_Rejects(t *testing.T) {
	tok, err := Issue("123", "alice", testIssuer, testKey, time.Hour)
	require.NoError(t, err)

	_, err = Parse(tok.Value, "other-key", testIssuer)
	assert.Error(t, err)

	_, err = Parse(tok.Value, testKey, "someone-else")
	assert.ErrorContains(t, err, "issuer mismatch")

	expired, err := Issue("123", "alice", testIssuer, testKey, -time.Minute)
	require.NoError(t, err)
	_, err = Parse(expired.Value, testKey, testIssuer)
	assert.Error(t, err)

	_, err = Issue("", "nobody", testIssuer, testKey, time.Hour)
	assert.Error(t, err)
}

func TestOwnerAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", OwnerAuth(testKey, testIssuer), func(c *gin.Context) {
		caller, ok := CallerFrom(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"id": caller.ID, "name": caller.DisplayName})
	})

	tok, err := Issue("123", "alice", testIssuer, testKey, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer abc.def.ghi", http.StatusUnauthorized},
		{"valid", "Bearer " + tok.Value, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusOK {
				assert.JSONEq(t, `{"id":"123","name":"alice"}`, w.Body.String())
			}
		})
	}
}
