package intel_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/PabloGalante/scam-harness/internal/app/intel"
	"github.com/PabloGalante/scam-harness/internal/domain"
)

func TestDeriveVerdict(t *testing.T) {
	tests := []struct {
		name     string
		detected bool
		in       domain.Intelligence
		want     float64
	}{
		{"detected with phone", true, domain.Intelligence{PhoneNumbers: []string{"+919876543210"}}, 0.9},
		{"detected with upi", true, domain.Intelligence{UPIIDs: []string{"fraud@ybl"}}, 0.9},
		{"detected with link", true, domain.Intelligence{PhishingLinks: []string{"http://bit.ly/x"}}, 0.9},
		{"detected with account", true, domain.Intelligence{BankAccounts: []string{"123456789012"}}, 0.9},
		{"detected keywords only", true, domain.Intelligence{SuspiciousKeywords: []string{"OTP"}}, 0.7},
		{"detected empty", true, domain.Intelligence{}, 0.7},
		{"not detected keywords", false, domain.Intelligence{SuspiciousKeywords: []string{"urgent"}}, 0.4},
		{"not detected intel without keywords", false, domain.Intelligence{PhoneNumbers: []string{"1"}}, 0.1},
		{"not detected empty", false, domain.Intelligence{}, 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := intel.DeriveVerdict(tt.detected, tt.in)
			assert.Equal(t, tt.want, v.ScamProbability)
			assert.Equal(t, tt.detected, v.AgentActive)
		})
	}
}

func TestDeriveVerdict_OTPRefundExample(t *testing.T) {
	in := domain.Intelligence{
		UPIIDs:             []string{},
		BankAccounts:       []string{},
		PhoneNumbers:       []string{"+919876543210"},
		PhishingLinks:      []string{},
		SuspiciousKeywords: []string{"OTP", "refund"},
	}

	v := intel.DeriveVerdict(true, in)

	assert.Equal(t, 0.9, v.ScamProbability)
	assert.True(t, v.AgentActive)
	assert.Equal(t, []string{"OTP", "refund"}, v.Keywords)
}

func TestDeriveVerdict_CapsKeywords(t *testing.T) {
	in := domain.Intelligence{SuspiciousKeywords: []string{"a", "b", "c", "d", "e", "f", "g"}}

	v := intel.DeriveVerdict(false, in)

	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, v.Keywords)
	assert.Len(t, in.SuspiciousKeywords, 7, "input must not be modified")
}

func TestAggregator_UpdateOverwrites(t *testing.T) {
	a := intel.NewAggregator()

	a.Update(domain.Intelligence{PhoneNumbers: []string{"1"}, SuspiciousKeywords: []string{"otp"}})
	a.Update(domain.Intelligence{UPIIDs: []string{"x@upi"}})

	got := a.Snapshot()
	assert.Equal(t, []string{"x@upi"}, got.UPIIDs)
	assert.Empty(t, got.PhoneNumbers)
	assert.Empty(t, got.SuspiciousKeywords)
	assert.NotNil(t, got.PhoneNumbers, "empty fields are normalised to empty slices")
}

func TestAggregator_Reset(t *testing.T) {
	a := intel.NewAggregator()
	a.Update(domain.Intelligence{BankAccounts: []string{"1"}})
	a.Reset()

	assert.True(t, a.Snapshot().Empty())
}

func TestBand(t *testing.T) {
	assert.Equal(t, intel.RiskHigh, intel.Band(0.9))
	assert.Equal(t, intel.RiskHigh, intel.Band(0.7))
	assert.Equal(t, intel.RiskElevated, intel.Band(0.5))
	assert.Equal(t, intel.RiskLow, intel.Band(0.4))
	assert.Equal(t, intel.RiskLow, intel.Band(0))
}
