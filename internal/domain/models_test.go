package domain

import (
	"testing"
	"time"
)

func TestPaymentFrequencyMonths(t *testing.T) {
	tests := []struct {
		freq PaymentFrequency
		want int
	}{
		{FrequencyMonthly, 1},
		{FrequencyQuarterly, 3},
		{FrequencySemiAnnual, 6},
		{FrequencyAnnual, 12},
		{PaymentFrequency("QUARTERLY"), 3},
		{PaymentFrequency("weekly"), 1},
		{PaymentFrequency(""), 1},
	}
	for _, tt := range tests {
		if got := tt.freq.Months(); got != tt.want {
			t.Errorf("%q.Months() = %d, want %d", tt.freq, got, tt.want)
		}
	}
}

func TestDayTruncatesToUTCMidnight(t *testing.T) {
	loc := time.FixedZone("UTC+4", 4*3600)
	in := time.Date(2024, 6, 1, 2, 30, 0, 0, loc)
	got := Day(in)
	want := time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Day(%v) = %v, want %v", in, got, want)
	}
	if got.Location() != time.UTC {
		t.Errorf("Day() location = %v, want UTC", got.Location())
	}
}

func TestDedupKeyIsStableWithinDay(t *testing.T) {
	entity := EntityRef{Kind: EntityContract}
	morning := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2024, 6, 1, 23, 59, 0, 0, time.UTC)
	nextDay := time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)

	k1 := DedupKey("acme", entity, "contract_expiry_reminder", morning)
	k2 := DedupKey("acme", entity, "contract_expiry_reminder", evening)
	k3 := DedupKey("acme", entity, "contract_expiry_reminder", nextDay)

	if k1 != k2 {
		t.Errorf("same-day keys differ: %q vs %q", k1, k2)
	}
	if k1 == k3 {
		t.Errorf("next-day key matches same-day key: %q", k1)
	}

	other := DedupKey("other", entity, "contract_expiry_reminder", morning)
	if k1 == other {
		t.Error("keys match across companies")
	}
}

func TestChannelToggles(t *testing.T) {
	toggles := ChannelToggles{Email: true, WhatsApp: true}

	if !toggles.Any() {
		t.Error("Any() = false with channels enabled")
	}
	if !toggles.Enabled(ChannelEmail) {
		t.Error("email should be enabled")
	}
	if toggles.Enabled(ChannelSMS) {
		t.Error("sms should be disabled")
	}
	if !toggles.Enabled(ChannelWhatsApp) {
		t.Error("whatsapp should be enabled")
	}

	var none ChannelToggles
	if none.Any() {
		t.Error("Any() = true on zero value")
	}
}
