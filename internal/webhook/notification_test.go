package webhook_test

import (
	"net/url"
	"testing"

	"storefront/internal/webhook"

	"github.com/stretchr/testify/assert"
)

func TestParseNotification(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		body       string
		wantType   string
		wantID     string
		wantExtID  string
		wantLegacy bool
		wantPay    bool
	}{
		{
			name:      "new format query",
			query:     "type=payment&data.id=123",
			body:      `{"id":"evt-1","type":"payment","data":{"id":"123"}}`,
			wantType:  "payment",
			wantID:    "123",
			wantExtID: "payment:123",
			wantPay:   true,
		},
		{
			name:       "legacy topic and id",
			query:      "topic=payment&id=999",
			wantType:   "payment",
			wantID:     "999",
			wantExtID:  "payment:999",
			wantLegacy: true,
			wantPay:    true,
		},
		{
			name:      "body only with numeric data id",
			body:      `{"type":"payment","data":{"id":555}}`,
			wantType:  "payment",
			wantID:    "555",
			wantExtID: "payment:555",
			wantPay:   true,
		},
		{
			name:      "query type wins over body and is lower-cased",
			query:     "type=PAYMENT&data.id=7",
			body:      `{"type":"merchant_order"}`,
			wantType:  "payment",
			wantID:    "7",
			wantExtID: "payment:7",
			wantPay:   true,
		},
		{
			name:      "non payment event uses body id",
			query:     "type=merchant_order",
			body:      `{"id":"mo-1"}`,
			wantType:  "merchant_order",
			wantID:    "mo-1",
			wantExtID: "merchant_order:mo-1",
		},
		{
			name:      "nothing at all",
			wantType:  "unknown",
			wantID:    "",
			wantExtID: "unknown:unknown",
		},
		{
			name:      "payment without id keeps raw event id",
			query:     "type=payment",
			body:      "not json",
			wantType:  "payment",
			wantID:    "",
			wantExtID: "payment:unknown",
			wantPay:   true,
		},
		{
			name:      "topic_payment is a payment event",
			query:     "topic=topic_payment&id=42",
			wantType:  "topic_payment",
			wantID:    "42",
			wantExtID: "payment:42",
			wantPay:   true, wantLegacy: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			assert.NoError(t, err)

			n := webhook.ParseNotification(q, webhook.DecodePayload([]byte(tt.body)))

			assert.Equal(t, tt.wantType, n.EventType)
			assert.Equal(t, tt.wantID, n.PaymentID)
			assert.Equal(t, tt.wantExtID, n.ExternalEventID)
			assert.Equal(t, tt.wantLegacy, n.IsLegacyFormat)
			assert.Equal(t, tt.wantPay, n.IsPaymentEvent)
		})
	}
}

func TestDecodePayload_InvalidJSONIsEmptyObject(t *testing.T) {
	p := webhook.DecodePayload([]byte("{broken"))
	assert.Empty(t, p)
	assert.JSONEq(t, `{}`, string(p.JSON()))

	p = webhook.DecodePayload([]byte(`["array"]`))
	assert.Empty(t, p)
}

func TestDecodePayload_KeepsLargeNumbers(t *testing.T) {
	p := webhook.DecodePayload([]byte(`{"data":{"id":123456789012345678}}`))
	assert.JSONEq(t, `{"data":{"id":123456789012345678}}`, string(p.JSON()))
}

func TestStringValue(t *testing.T) {
	s, ok := webhook.StringValue("  abc ")
	assert.True(t, ok)
	assert.Equal(t, "abc", s)

	_, ok = webhook.StringValue("   ")
	assert.False(t, ok)

	s, ok = webhook.StringValue(float64(12))
	assert.True(t, ok)
	assert.Equal(t, "12", s)

	_, ok = webhook.StringValue(nil)
	assert.False(t, ok)
}
