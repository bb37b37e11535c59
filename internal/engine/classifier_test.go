package engine

import "testing"

func TestClassify(t *testing.T) {
	p := DefaultPolicy() // critical 5, min 10, target 25

	cases := []struct {
		balance string
		status  Status
		urgency int
	}{
		{"0", StatusCritical, 100},
		{"3", StatusCritical, 100},
		{"4.9999", StatusCritical, 100},
		{"5", StatusLow, 75},
		{"9.99", StatusLow, 75},
		{"10", StatusModerate, 30},
		{"24.999", StatusModerate, 30},
		{"25", StatusHealthy, 0},
		{"1000", StatusHealthy, 0},
	}

	for _, tc := range cases {
		got := Classify(d(tc.balance), p)
		if got.Status != tc.status || got.Urgency != tc.urgency {
			t.Fatalf("balance %s: expected (%s, %d), got (%s, %d)",
				tc.balance, tc.status, tc.urgency, got.Status, got.Urgency)
		}
	}
}

func TestClassifyCriticalScenario(t *testing.T) {
	p := DefaultPolicy()
	got := Classify(d("3"), p)
	if got.Status != StatusCritical || got.Urgency != 100 {
		t.Fatalf("expected CRITICAL/100, got %s/%d", got.Status, got.Urgency)
	}
}
