package services

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yungbote/aleator-backend/internal/pkg/ctxutil"
	"github.com/yungbote/aleator-backend/internal/pkg/logger"
)

func TestAuthServiceRoundTrip(t *testing.T) {
	as := NewAuthService(logger.Nop(), "secret")
	user := uuid.New()
	token, err := as.IssueToken(user, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	ctx, err := as.SetContextFromToken(context.Background(), token)
	if err != nil {
		t.Fatalf("SetContextFromToken: %v", err)
	}
	if got := ctxutil.UserID(ctx); got != user {
		t.Fatalf("user = %s, want %s", got, user)
	}
}

func TestAuthServiceRejects(t *testing.T) {
	as := NewAuthService(logger.Nop(), "secret")
	expired, _ := as.IssueToken(uuid.New(), -time.Minute)
	other, _ := NewAuthService(logger.Nop(), "other").IssueToken(uuid.New(), time.Hour)
	noExp, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: uuid.NewString()}).SignedString([]byte("secret"))
	badSubject, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("secret"))

	for name, token := range map[string]string{
		"expired":     expired,
		"wrong key":   other,
		"no expiry":   noExp,
		"bad subject": badSubject,
		"not a jwt":   "abc.def",
	} {
		if _, err := as.SetContextFromToken(context.Background(), token); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}
