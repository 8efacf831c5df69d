package infra

import "testing"

func TestCalculateBackoff(t *testing.T) {
	tests := []struct {
		retryCount int
		wantMs     int64
	}{
		{-1, 1000},
		{0, 1000},   // 1s
		{1, 2000},   // 2s
		{2, 4000},   // 4s
		{3, 8000},   // 8s
		{6, 60000},  // 64s capped
		{10, 60000}, // max 60s
		{100, 60000},
	}

	for _, tt := range tests {
		if got := CalculateBackoff(tt.retryCount).Milliseconds(); got != tt.wantMs {
			t.Errorf("CalculateBackoff(%d) = %dms, want %dms", tt.retryCount, got, tt.wantMs)
		}
	}
}
