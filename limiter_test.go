package siteadmin

import (
	"testing"
	"time"
)

// failLogin mirrors the login handler: check first, record the failure only
// when the attempt was let through.
func failLogin(l *LoginLimiter, ip string) bool {
	if !l.Check(ip) {
		return false
	}
	l.Record(ip)
	return true
}

func TestLoginLimiterBlocksAfterMax(t *testing.T) {
	limiter := NewLoginLimiter(2, 200*time.Millisecond)
	defer limiter.Close()
	ip := "203.0.113.10"

	if !failLogin(limiter, ip) {
		t.Fatalf("expected first attempt to be allowed")
	}
	if !failLogin(limiter, ip) {
		t.Fatalf("expected second attempt to be allowed")
	}
	if failLogin(limiter, ip) {
		t.Fatalf("expected third attempt to be blocked")
	}
}

func TestLoginLimiterResetsAfterWindow(t *testing.T) {
	limiter := NewLoginLimiter(1, 150*time.Millisecond)
	defer limiter.Close()
	ip := "203.0.113.20"

	if !failLogin(limiter, ip) {
		t.Fatalf("expected first attempt to be allowed")
	}
	if failLogin(limiter, ip) {
		t.Fatalf("expected second attempt to be blocked")
	}

	time.Sleep(200 * time.Millisecond)
	if !failLogin(limiter, ip) {
		t.Fatalf("expected attempt after window to be allowed")
	}
}

func TestLoginLimiterIsPerIP(t *testing.T) {
	limiter := NewLoginLimiter(1, 200*time.Millisecond)
	defer limiter.Close()

	if !failLogin(limiter, "203.0.113.30") {
		t.Fatalf("expected first ip to be allowed")
	}
	if !failLogin(limiter, "203.0.113.31") {
		t.Fatalf("expected second ip to be allowed independently")
	}
	if failLogin(limiter, "203.0.113.30") {
		t.Fatalf("expected first ip to be blocked after max")
	}
}

func TestLoginLimiterCheckDoesNotRecord(t *testing.T) {
	limiter := NewLoginLimiter(1, time.Minute)
	defer limiter.Close()
	ip := "203.0.113.50"

	for i := 0; i < 3; i++ {
		if !limiter.Check(ip) {
			t.Fatalf("check %d: expected ip without failures to pass", i)
		}
	}
}

func TestLoginLimiterCheckRecordReset(t *testing.T) {
	limiter := NewLoginLimiter(2, time.Minute)
	defer limiter.Close()
	ip := "203.0.113.40"

	if !limiter.Check(ip) {
		t.Fatalf("expected fresh ip to pass check")
	}
	limiter.Record(ip)
	limiter.Record(ip)
	if limiter.Check(ip) {
		t.Fatalf("expected ip to be blocked after two failures")
	}
	limiter.Reset(ip)
	if !limiter.Check(ip) {
		t.Fatalf("expected reset to clear failures")
	}
}

func TestLoginLimiterCloseIsIdempotent(t *testing.T) {
	limiter := NewLoginLimiter(1, time.Millisecond)
	limiter.Close()
	limiter.Close()
}
