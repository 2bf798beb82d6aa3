package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestIdentity_HeaderPropagation(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Identity())
	r.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, UserID(c))
	})

	cases := []struct {
		name   string
		header string
		want   string
	}{
		{"plain id", "u42", "u42"},
		{"surrounding whitespace trimmed", "  u42  ", "u42"},
		{"absent header is anonymous", "", ""},
		{"blank header is anonymous", "   ", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tc.header != "" {
				req.Header.Set("X-User-ID", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Body.String() != tc.want {
				t.Fatalf("identity = %q; want %q", w.Body.String(), tc.want)
			}
		})
	}
}

func TestRequireUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Identity())
	var reached bool
	r.GET("/private", RequireUser(), func(c *gin.Context) {
		reached = true
		c.Status(http.StatusOK)
	})

	// Anonymous request is rejected before the handler runs.
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized || reached {
		t.Fatalf("status=%d reached=%v", w.Code, reached)
	}

	var body struct {
		RequestID string `json:"request_id"`
		Code      string `json:"code"`
		Message   string `json:"message"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if body.Code != "unauthenticated" || body.Message != "authentication required" {
		t.Fatalf("envelope = %+v", body)
	}
	if body.RequestID == "" {
		t.Fatalf("401 envelope missing request id")
	}

	// An identified request passes through.
	req = httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("X-User-ID", "u1")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || !reached {
		t.Fatalf("status=%d reached=%v", w.Code, reached)
	}
}

func TestUserID_NonStringValue(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Set(userIDKey, 42)
	if got := UserID(c); got != "" {
		t.Fatalf("non-string identity read as %q", got)
	}
}
