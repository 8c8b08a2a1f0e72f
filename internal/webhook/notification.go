package webhook

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strings"
)

// 通知1件から取り出したキー情報
type Notification struct {
	EventType       string
	PaymentID       string
	ExternalEventID string
	IsLegacyFormat  bool
	IsPaymentEvent  bool
}

// リクエストボディ。JSONとして読めなければ空オブジェクト扱い
type Payload map[string]interface{}

func DecodePayload(body []byte) Payload {
	if len(bytes.TrimSpace(body)) == 0 {
		return Payload{}
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var p map[string]interface{}
	if err := dec.Decode(&p); err != nil || p == nil {
		return Payload{}
	}
	return Payload(p)
}

// 監査用にそのまま保存するJSON
func (p Payload) JSON() []byte {
	b, err := json.Marshal(map[string]interface{}(p))
	if err != nil {
		return []byte("{}")
	}
	return b
}

// 新形式(?type=payment&data.id=...)と旧形式(?topic=payment&id=...)の両方から読む
func ParseNotification(query url.Values, payload Payload) Notification {
	eventType, ok := firstQuery(query, "type", "topic")
	if !ok {
		if s, ok := StringValue(payload["type"]); ok {
			eventType = s
		} else {
			eventType = "unknown"
		}
	}
	eventType = strings.ToLower(eventType)

	paymentIDFromQueryLegacy, hasLegacyID := queryGet(query, "id")
	bodyID, hasBodyID := StringValue(payload["id"])

	paymentID, ok := queryGet(query, "data.id")
	if !ok {
		switch {
		case hasLegacyID:
			paymentID = paymentIDFromQueryLegacy
		default:
			if s, ok := bodyDataID(payload); ok {
				paymentID = s
			} else if hasBodyID {
				paymentID = bodyID
			}
		}
	}

	isLegacy := query.Has("topic") && query.Has("id")
	isPayment := eventType == "payment" || eventType == "topic_payment"

	rawEventID := "unknown"
	switch {
	case hasBodyID:
		rawEventID = bodyID
	case hasLegacyID:
		rawEventID = paymentIDFromQueryLegacy
	default:
		if s, ok := queryGet(query, "data.id"); ok {
			rawEventID = s
		}
	}

	externalID := eventType + ":" + rawEventID
	if isPayment && paymentID != "" {
		externalID = "payment:" + paymentID
	}

	return Notification{
		EventType:       eventType,
		PaymentID:       paymentID,
		ExternalEventID: externalID,
		IsLegacyFormat:  isLegacy,
		IsPaymentEvent:  isPayment,
	}
}

// パラメータが「ある」かどうかで判定する（空文字でもあれば採用）
func queryGet(q url.Values, key string) (string, bool) {
	vs, ok := q[key]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

func firstQuery(q url.Values, keys ...string) (string, bool) {
	for _, k := range keys {
		if v, ok := queryGet(q, k); ok {
			return v, true
		}
	}
	return "", false
}

func bodyDataID(p Payload) (string, bool) {
	data, ok := p["data"].(map[string]interface{})
	if !ok {
		return "", false
	}
	return StringValue(data["id"])
}

// 空白だけの文字列は無し扱い。数値は文字列にする
func StringValue(v interface{}) (string, bool) {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return "", false
		}
		return s, true
	case json.Number:
		return t.String(), true
	case float64:
		b, err := json.Marshal(t)
		if err != nil {
			return "", false
		}
		return string(b), true
	}
	return "", false
}
