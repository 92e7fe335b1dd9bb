package quota

import (
	"testing"
	"time"
)

func TestTakeEnforcesLimit(t *testing.T) {
	c := NewDailyCounter(3, nil)

	for i := 3; i > 0; i-- {
		remaining, ok := c.Take("1.2.3.4")
		if !ok {
			t.Fatalf("take %d refused", 4-i)
		}
		if remaining != i-1 {
			t.Errorf("remaining = %d, want %d", remaining, i-1)
		}
	}
	if _, ok := c.Take("1.2.3.4"); ok {
		t.Error("take beyond limit granted")
	}
	if !c.Allow("5.6.7.8") {
		t.Error("independent key blocked")
	}
}

func TestAllowDoesNotConsume(t *testing.T) {
	c := NewDailyCounter(1, nil)
	for i := 0; i < 5; i++ {
		if !c.Allow("k") {
			t.Fatal("Allow consumed budget")
		}
	}
	if _, ok := c.Take("k"); !ok {
		t.Fatal("budget gone without a Take")
	}
	if c.Allow("k") {
		t.Error("Allow true after limit reached")
	}
}

func TestResetsAtUTCMidnight(t *testing.T) {
	clock := time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)
	c := NewDailyCounter(1, func() time.Time { return clock })

	if _, ok := c.Take("k"); !ok {
		t.Fatal("first take refused")
	}
	if _, ok := c.Take("k"); ok {
		t.Fatal("limit not enforced")
	}

	clock = clock.Add(2 * time.Minute)
	if _, ok := c.Take("k"); !ok {
		t.Error("budget did not reset on the new UTC day")
	}
}
