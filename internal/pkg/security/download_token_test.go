package security

import (
	"strings"
	"testing"
	"time"
)

func TestDownloadTokenRoundTrip(t *testing.T) {
	token, err := GenerateDownloadToken(7, "abc-123", time.Minute, "secret")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := VerifyDownloadToken(token, "secret")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != 7 || claims.AttachmentUUID != "abc-123" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestDownloadTokenRejectsTampering(t *testing.T) {
	token, err := GenerateDownloadToken(7, "abc-123", time.Minute, "secret")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := VerifyDownloadToken(token, "other-secret"); err == nil {
		t.Fatal("token accepted with wrong secret")
	}

	parts := strings.SplitN(token, ".", 2)
	tampered := parts[0] + "x." + parts[1]
	if _, err := VerifyDownloadToken(tampered, "secret"); err == nil {
		t.Fatal("tampered token accepted")
	}
}

func TestDownloadTokenExpiry(t *testing.T) {
	token, err := GenerateDownloadToken(7, "abc-123", -time.Minute, "secret")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := VerifyDownloadToken(token, "secret"); err == nil {
		t.Fatal("expired token accepted")
	}
}
