package signal

import (
	"testing"
	"time"
)

func TestRoomRateLimiterWindow(t *testing.T) {
	now := time.Unix(1000, 0)
	rl := NewRoomRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	if !rl.Allow("u1") || !rl.Allow("u1") {
		t.Fatal("first two attempts denied")
	}
	if rl.Allow("u1") {
		t.Fatal("third attempt allowed inside window")
	}
	if !rl.Allow("u2") {
		t.Fatal("limit leaked across keys")
	}

	now = now.Add(61 * time.Second)
	if !rl.Allow("u1") {
		t.Fatal("attempt denied after window passed")
	}
}

func TestRoomRateLimiterForget(t *testing.T) {
	now := time.Unix(1000, 0)
	rl := NewRoomRateLimiter(1, time.Second)
	rl.now = func() time.Time { return now }
	rl.Allow("a")
	rl.Allow("b")

	now = now.Add(2 * time.Second)
	rl.Forget()
	if len(rl.history) != 0 {
		t.Fatalf("history = %v", rl.history)
	}
}
