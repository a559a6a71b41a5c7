package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func sampleAt(t time.Time, price string) PriceSample {
	return PriceSample{
		ItemID:    "test-item",
		Price:     decimal.RequireFromString(price),
		Currency:  "GBP",
		Retailer:  "argos",
		FetchedAt: t,
	}
}

func TestMonitorState_ApplySample(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	st := MonitorState{ItemID: "test-item"}

	if err := st.ApplySample(sampleAt(base, "149.99")); err != nil {
		t.Fatalf("ApplySample failed: %v", err)
	}
	if st.LastOutcome != OutcomeSuccess {
		t.Errorf("LastOutcome = %q, want %q", st.LastOutcome, OutcomeSuccess)
	}
	if !st.LowestPrice.Equal(decimal.RequireFromString("149.99")) {
		t.Errorf("LowestPrice = %s, want 149.99", st.LowestPrice)
	}

	// Later sample replaces, lowest tracks the minimum.
	if err := st.ApplySample(sampleAt(base.Add(time.Hour), "129.99")); err != nil {
		t.Fatalf("ApplySample failed: %v", err)
	}
	if !st.LastSample.Price.Equal(decimal.RequireFromString("129.99")) {
		t.Errorf("LastSample.Price = %s, want 129.99", st.LastSample.Price)
	}

	// A higher later price replaces the sample but not the lowest.
	if err := st.ApplySample(sampleAt(base.Add(2*time.Hour), "199.99")); err != nil {
		t.Fatalf("ApplySample failed: %v", err)
	}
	if !st.LowestPrice.Equal(decimal.RequireFromString("129.99")) {
		t.Errorf("LowestPrice = %s, want 129.99", st.LowestPrice)
	}
}

func TestMonitorState_ApplySample_RejectsStale(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	st := MonitorState{ItemID: "test-item"}

	if err := st.ApplySample(sampleAt(base, "100")); err != nil {
		t.Fatalf("ApplySample failed: %v", err)
	}

	// Same timestamp: rejected.
	if err := st.ApplySample(sampleAt(base, "90")); err == nil {
		t.Error("ApplySample accepted a sample with an equal timestamp")
	}
	// Earlier timestamp: rejected, state untouched.
	if err := st.ApplySample(sampleAt(base.Add(-time.Minute), "80")); err == nil {
		t.Error("ApplySample accepted an older sample")
	}
	if !st.LastSample.Price.Equal(decimal.NewFromInt(100)) {
		t.Errorf("LastSample.Price = %s, want 100", st.LastSample.Price)
	}
}

func TestMonitorState_ApplySample_RejectsWrongItem(t *testing.T) {
	st := MonitorState{ItemID: "other-item"}
	err := st.ApplySample(sampleAt(time.Now(), "10"))
	if err == nil {
		t.Error("ApplySample accepted a sample for a different item")
	}
}

func TestMonitorState_FailureCounter(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	st := MonitorState{ItemID: "test-item"}

	st.RecordFailure(base)
	st.RecordFailure(base.Add(time.Minute))
	if st.ConsecutiveFailures != 2 {
		t.Errorf("ConsecutiveFailures = %d, want 2", st.ConsecutiveFailures)
	}
	if st.LastSample != nil {
		t.Error("RecordFailure touched LastSample")
	}

	// A success resets the counter.
	if err := st.ApplySample(sampleAt(base.Add(2*time.Minute), "50")); err != nil {
		t.Fatalf("ApplySample failed: %v", err)
	}
	if st.ConsecutiveFailures != 0 {
		t.Errorf("ConsecutiveFailures = %d, want 0 after success", st.ConsecutiveFailures)
	}
}

func TestItem_FullQuery(t *testing.T) {
	tests := []struct {
		name string
		item Item
		want string
	}{
		{
			name: "name only",
			item: Item{Name: "Sony WH-1000XM5"},
			want: "Sony WH-1000XM5",
		},
		{
			name: "query override",
			item: Item{Name: "Sony WH-1000XM5", SearchQuery: "sony xm5 headphones"},
			want: "sony xm5 headphones",
		},
		{
			name: "specifications appended",
			item: Item{Name: "Sony WH-1000XM5", Specifications: "black uk"},
			want: "Sony WH-1000XM5 black uk",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.item.FullQuery(); got != tt.want {
				t.Errorf("FullQuery() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHealthSnapshot_Uptime(t *testing.T) {
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	h := HealthSnapshot{StartedAt: start}
	if got := h.Uptime(start.Add(90 * time.Second)); got != 90*time.Second {
		t.Errorf("Uptime = %s, want 90s", got)
	}
	if got := (HealthSnapshot{}).Uptime(start); got != 0 {
		t.Errorf("Uptime on zero snapshot = %s, want 0", got)
	}
}
