package binance

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
	"testing"
)

func TestSignedQueryAppendsSignatureLast(t *testing.T) {
	c := NewOrderClient("key", "secret", "https://api.example.com/api")

	params := url.Values{}
	params.Set("symbol", "BTCUSDT")
	params.Set("side", "BUY")
	params.Set("type", "MARKET")
	params.Set("quantity", "0.001")
	params.Set("timestamp", "1717243200000")

	q := c.signedQuery(params)

	idx := strings.LastIndex(q, "&signature=")
	if idx < 0 {
		t.Fatalf("no signature in query %q", q)
	}
	if strings.Index(q, "signature=") < idx+1 {
		t.Fatalf("signature must appear exactly once, at the end: %q", q)
	}

	payload, sig := q[:idx], q[idx+len("&signature="):]
	if payload != params.Encode() {
		t.Fatalf("signed payload %q differs from encoded params %q", payload, params.Encode())
	}

	mac := hmac.New(sha256.New, []byte("secret"))
	mac.Write([]byte(payload))
	want := hex.EncodeToString(mac.Sum(nil))
	if sig != want {
		t.Fatalf("signature %q does not match hmac of preceding bytes %q", sig, want)
	}
}

func TestSignedQuerySignatureCoversSentBytes(t *testing.T) {
	c := NewOrderClient("key", "secret", "https://api.example.com/api")

	params := url.Values{}
	params.Set("symbol", "ETHUSDT")
	params.Set("side", "SELL")
	params.Set("timestamp", "1")

	q := c.signedQuery(params)

	// The signature must verify against everything sent before it. A
	// signature sorted into the middle of the payload fails this check.
	idx := strings.LastIndex(q, "&signature=")
	mac := hmac.New(sha256.New, []byte("secret"))
	mac.Write([]byte(q[:idx]))
	if got := hex.EncodeToString(mac.Sum(nil)); got != q[idx+len("&signature="):] {
		t.Fatalf("sent bytes do not verify: %q", q)
	}
}
