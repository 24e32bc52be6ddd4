package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"
)

func signPayload(t *testing.T, payload []byte, secret string, ts int64) string {
	t.Helper()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", ts)
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func TestVerifyStripeWebhookSignature(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"invoice.paid"}`)
	secret := "whsec_test"
	now := time.Now()

	header := signPayload(t, payload, secret, now.Unix())
	if !verifyStripeSignatureAt(payload, header, secret, DefaultSignatureTolerance, now) {
		t.Fatal("valid signature rejected")
	}

	if verifyStripeSignatureAt(payload, header, "whsec_other", DefaultSignatureTolerance, now) {
		t.Fatal("signature accepted with wrong secret")
	}
	if verifyStripeSignatureAt([]byte(`{"tampered":true}`), header, secret, DefaultSignatureTolerance, now) {
		t.Fatal("signature accepted for tampered payload")
	}
}

func TestVerifyStripeWebhookSignatureTolerance(t *testing.T) {
	payload := []byte(`{}`)
	secret := "whsec_test"
	now := time.Now()

	stale := signPayload(t, payload, secret, now.Add(-10*time.Minute).Unix())
	if verifyStripeSignatureAt(payload, stale, secret, DefaultSignatureTolerance, now) {
		t.Fatal("stale signature accepted within 5 minute tolerance")
	}
	if !verifyStripeSignatureAt(payload, stale, secret, 0, now) {
		t.Fatal("zero tolerance should disable the age check")
	}
}

func TestVerifyStripeWebhookSignatureMalformed(t *testing.T) {
	payload := []byte(`{}`)
	for _, header := range []string{
		"",
		"v1=deadbeef",
		"t=notanumber,v1=deadbeef",
		"t=123",
	} {
		if verifyStripeSignatureAt(payload, header, "whsec_test", 0, time.Now()) {
			t.Fatalf("malformed header %q accepted", header)
		}
	}
}

func TestVerifyStripeWebhookSignatureMultipleV1(t *testing.T) {
	payload := []byte(`{"ok":true}`)
	secret := "whsec_test"
	now := time.Now()

	valid := signPayload(t, payload, secret, now.Unix())
	header := fmt.Sprintf("t=%d,v1=%s,%s", now.Unix(), hex.EncodeToString([]byte("bogus sig bytes")), valid[len(fmt.Sprintf("t=%d,", now.Unix())):])
	if !verifyStripeSignatureAt(payload, header, secret, DefaultSignatureTolerance, now) {
		t.Fatal("valid signature among multiple v1 entries rejected")
	}
}
