package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func protectedRouter(tokens *TokenService, sessions *Sessions) *gin.Engine {
	r := gin.New()
	r.GET("/admin", AdminAuth(tokens, sessions), func(c *gin.Context) {
		sess, _ := SessionFrom(c)
		c.String(http.StatusOK, sess.User.ID)
	})
	return r
}

func call(r http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAdminAuth(t *testing.T) {
	tokens := NewTokenService("tayoga", "k")
	sessions := newTestSessions(newFakeProvider())
	r := protectedRouter(tokens, sessions)

	if w := call(r, ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("no token: %d", w.Code)
	}
	if w := call(r, "garbage"); w.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: %d", w.Code)
	}

	admin, _ := sessions.SignIn(context.Background(), "jana@tayoga.cz", "secret")
	tok, _ := tokens.Issue(admin)
	w := call(r, tok)
	if w.Code != http.StatusOK || w.Body.String() != "u1" {
		t.Fatalf("admin: %d %s", w.Code, w.Body.String())
	}

	_ = sessions.SignOut(context.Background(), admin.ID)
	if w := call(r, tok); w.Code != http.StatusUnauthorized {
		t.Fatalf("signed out token: %d", w.Code)
	}

	instructor, _ := sessions.SignIn(context.Background(), "lektor@tayoga.cz", "secret")
	itok, _ := tokens.Issue(instructor)
	if w := call(r, itok); w.Code != http.StatusForbidden {
		t.Fatalf("instructor: %d", w.Code)
	}
}
