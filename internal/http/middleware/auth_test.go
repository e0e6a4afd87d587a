package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/javuy-backend/internal/platform/ctxutil"
	"github.com/yungbote/javuy-backend/internal/platform/logger"
)

func TestExtractTokenOrder(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name   string
		cookie string
		header string
		query  string
		want   string
	}{
		{name: "cookie wins", cookie: "c", header: "Bearer h", query: "q", want: "c"},
		{name: "bearer next", header: "Bearer h", query: "q", want: "h"},
		{name: "bearer case", header: "bearer h2", want: "h2"},
		{name: "query last", header: "Basic abc", query: "q", want: "q"},
		{name: "none", want: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := "/"
			if tc.query != "" {
				path += "?token=" + tc.query
			}
			req := httptest.NewRequest(http.MethodGet, path, nil)
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: TokenCookie, Value: tc.cookie})
			}
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = req
			if got := ExtractToken(c); got != tc.want {
				t.Fatalf("ExtractToken=%q want %q", got, tc.want)
			}
		})
	}
}

func newTestMiddleware(t *testing.T) *AuthMiddleware {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return NewAuthMiddleware(log, nil)
}

func TestRequireAuthRejectsMissingToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	am := newTestMiddleware(t)

	r := gin.New()
	r.GET("/me", am.RequireAuth(), func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d want 401", rec.Code)
	}
}

func TestRequireAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	am := newTestMiddleware(t)

	for _, tc := range []struct {
		role string
		want int
	}{
		{role: "admin", want: http.StatusOK},
		{role: "user", want: http.StatusForbidden},
		{role: "", want: http.StatusForbidden},
	} {
		r := gin.New()
		r.Use(func(c *gin.Context) {
			if tc.role != "" {
				rd := &ctxutil.RequestData{UserID: uuid.New(), Username: "x", Role: tc.role}
				c.Request = c.Request.WithContext(ctxutil.WithRequestData(c.Request.Context(), rd))
			}
			c.Next()
		})
		r.GET("/admin", am.RequireAdmin(), func(c *gin.Context) { c.Status(http.StatusOK) })

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin", nil))
		if rec.Code != tc.want {
			t.Fatalf("role %q: status=%d want %d", tc.role, rec.Code, tc.want)
		}
	}
}
