package utils

import (
	"Go_Share/config"
	"Go_Share/model"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

type stubUsers map[uint64]*model.User

func (s stubUsers) FindUserByID(_ context.Context, id uint64) (*model.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, errors.New("not found")
}

func TestTokenRoundTrip(t *testing.T) {
	config.AppConfig.JWTSecret = "secret-a"
	token, err := GenerateToken(7, "alice", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	claims, err := VerifyToken(token)
	if err != nil || claims.UserId != 7 || claims.Username != "alice" {
		t.Fatalf("unexpected claims %+v %v", claims, err)
	}

	config.AppConfig.JWTSecret = "secret-b"
	if _, err := VerifyToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("a token signed with another secret must fail, got %v", err)
	}
	if _, err := VerifyToken("not-a-jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("malformed token must fail, got %v", err)
	}
}

func TestVerifyTokenRejectsNoneAlg(t *testing.T) {
	config.AppConfig.JWTSecret = "secret"
	token := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserId: 1})
	raw, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := VerifyToken(raw); err == nil {
		t.Fatalf("unsigned token must be rejected")
	}
}

func TestVerifyTokenExpired(t *testing.T) {
	config.AppConfig.JWTSecret = "secret"
	token, err := GenerateToken(1, "bob", -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := VerifyToken(token); err == nil {
		t.Fatalf("expired token must be rejected")
	}
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	config.AppConfig.JWTSecret = "secret"
	users := stubUsers{3: {ID: 3, UserName: "carol"}}
	r := gin.New()
	r.GET("/", AuthMiddleware(users), func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, user.UserName)
	})

	good, _ := GenerateToken(3, "carol", time.Hour)
	unknown, _ := GenerateToken(4, "dan", time.Hour)
	cases := []struct {
		header string
		code   int
	}{
		{"Bearer " + good, http.StatusOK},
		{good, http.StatusOK},
		{"", http.StatusForbidden},
		{"Bearer ", http.StatusForbidden},
		{"Bearer junk", http.StatusForbidden},
		{unknown, http.StatusForbidden},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != tc.code {
			t.Fatalf("header %q: expect %d, got %d", tc.header, tc.code, w.Code)
		}
		if tc.code == http.StatusOK && w.Body.String() != "carol" {
			t.Fatalf("unexpected body %q", w.Body.String())
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORSMiddleware())
	r.POST("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://app.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expect 204, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "https://app.example" {
		t.Fatalf("origin should be echoed")
	}
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("hunter2")
	if err != nil {
		t.Fatal(err)
	}
	if !CheckPwd("hunter2", hash) || CheckPwd("wrong", hash) {
		t.Fatalf("password check mismatch")
	}
}
