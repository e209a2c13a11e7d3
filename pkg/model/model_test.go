package model

import (
	"math/big"
	"testing"
	"time"
)

func TestDeriveStatus(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	tests := []struct {
		name     string
		claimed  bool
		start    time.Time
		end      time.Time
		expected PolicyStatus
	}{
		{
			name:     "active inside window",
			start:    now.Add(-100 * time.Second),
			end:      now.Add(100 * time.Second),
			expected: StatusActive,
		},
		{
			name:     "expired after window",
			start:    now.Add(-300 * time.Second),
			end:      now.Add(-101 * time.Second),
			expected: StatusExpired,
		},
		{
			name:     "pending before window",
			start:    now.Add(50 * time.Second),
			end:      now.Add(500 * time.Second),
			expected: StatusPending,
		},
		{
			name:     "claimed wins over active window",
			claimed:  true,
			start:    now.Add(-100 * time.Second),
			end:      now.Add(100 * time.Second),
			expected: StatusClaimed,
		},
		{
			name:     "claimed wins over expired window",
			claimed:  true,
			start:    now.Add(-300 * time.Second),
			end:      now.Add(-200 * time.Second),
			expected: StatusClaimed,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := DeriveStatus(tc.claimed, tc.start, tc.end, now)
			if got != tc.expected {
				t.Fatalf("DeriveStatus = %s, want %s", got, tc.expected)
			}
		})
	}
}

// TestDeriveStatus_BoundaryShift pins the boundary behavior: a window
// [T-100, T+100] is Active at T and Expired at T+101.
func TestDeriveStatus_BoundaryShift(t *testing.T) {
	base := time.Unix(1_700_000_000, 0)
	start := base.Add(-100 * time.Second)
	end := base.Add(100 * time.Second)

	if got := DeriveStatus(false, start, end, base); got != StatusActive {
		t.Fatalf("at T: got %s, want Active", got)
	}
	if got := DeriveStatus(false, start, end, base.Add(101*time.Second)); got != StatusExpired {
		t.Fatalf("at T+101: got %s, want Expired", got)
	}
}

func TestPremiumFor(t *testing.T) {
	tests := []struct {
		coverage string
		expected string
	}{
		{"1000000000000000000", "50000000000000000"}, // 1 ETH -> 0.05 ETH
		{"100", "5"},
		{"99", "4"}, // truncation, not rounding
		{"19", "0"},
		{"0", "0"},
	}

	for _, tc := range tests {
		cov, _ := new(big.Int).SetString(tc.coverage, 10)
		got := PremiumFor(cov)
		if got.String() != tc.expected {
			t.Fatalf("PremiumFor(%s) = %s, want %s", tc.coverage, got, tc.expected)
		}
	}
}

// TestPremiumFor_DoesNotMutate makes sure the input amount is left untouched.
func TestPremiumFor_DoesNotMutate(t *testing.T) {
	cov := big.NewInt(1000)
	_ = PremiumFor(cov)
	if cov.Int64() != 1000 {
		t.Fatalf("coverage mutated: %s", cov)
	}
}

func TestStatsResultIsLive(t *testing.T) {
	if (StatsResult{Provenance: Placeholder}).IsLive() {
		t.Fatal("placeholder result reported as live")
	}
	if !(StatsResult{Provenance: Live}).IsLive() {
		t.Fatal("live result not reported as live")
	}
}
