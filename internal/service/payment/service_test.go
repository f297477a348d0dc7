package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pseudosapiens/phrase-api/pkg/logger"
)

func TestPlanFromOrderID(t *testing.T) {
	tests := []struct {
		orderID string
		planID  int
		wantErr bool
	}{
		{"pseudosapiens_plan_2_1725000000_ab12", 2, false},
		{"pseudosapiens_plan_13_1725000000_ff00", 13, false},
		{"pseudosapiens_plan_0_1725000000_cc", 0, false},
		{"other_plan_2_123", 0, true},
		{"pseudosapiens_plan_x_123", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := PlanFromOrderID(tt.orderID)
		if tt.wantErr {
			assert.Error(t, err, tt.orderID)
			continue
		}
		require.NoError(t, err, tt.orderID)
		assert.Equal(t, tt.planID, got, tt.orderID)
	}
}

func TestVerifySignature(t *testing.T) {
	svc := NewService(nil, nil, nil, "test-key", logger.NewLogger(nil))
	payload := []byte("vads_trans_status=AUTHORISED&vads_order_id=pseudosapiens_plan_2_1")

	mac := hmac.New(sha256.New, []byte("test-key"))
	mac.Write(payload)
	sig := hex.EncodeToString(mac.Sum(nil))

	assert.True(t, svc.VerifySignature(payload, sig))
	// Providers are inconsistent about hex casing.
	assert.True(t, svc.VerifySignature(payload, strings.ToUpper(sig)))

	assert.False(t, svc.VerifySignature(payload, "deadbeef"))
	assert.False(t, svc.VerifySignature([]byte("tampered"), sig))
}
