package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

type SignatureReason string

const (
	ReasonValid                 SignatureReason = "valid"
	ReasonMissingSecret         SignatureReason = "missing_secret"
	ReasonUnsignedRequest       SignatureReason = "unsigned_request"
	ReasonMissingHeaders        SignatureReason = "missing_headers"
	ReasonMissingSignatureParts SignatureReason = "missing_signature_parts"
	ReasonInvalidDigest         SignatureReason = "invalid_digest"
)

type SignatureResult struct {
	IsSigned bool
	IsValid  bool
	Reason   SignatureReason
}

// x-signature: "ts=<unix>,v1=<hex hmac>"
// manifest: "id:<paymentId>;request-id:<x-request-id>;ts:<ts>;"
func VerifySignature(signatureHeader, requestIDHeader, paymentID, secret string) SignatureResult {
	if secret == "" {
		return SignatureResult{Reason: ReasonMissingSecret}
	}
	if signatureHeader == "" {
		return SignatureResult{Reason: ReasonUnsignedRequest}
	}
	if requestIDHeader == "" || paymentID == "" {
		return SignatureResult{IsSigned: true, Reason: ReasonMissingHeaders}
	}

	parts := signatureParts(signatureHeader)
	ts, v1 := parts["ts"], parts["v1"]
	if ts == "" || v1 == "" {
		return SignatureResult{IsSigned: true, Reason: ReasonMissingSignatureParts}
	}

	expected := SignManifest(secret, paymentID, requestIDHeader, ts)
	received := strings.ToLower(v1)

	// 長さが違えばcompareせずに不一致
	if len(expected) != len(received) {
		return SignatureResult{IsSigned: true, Reason: ReasonInvalidDigest}
	}
	if !hmac.Equal([]byte(expected), []byte(received)) {
		return SignatureResult{IsSigned: true, Reason: ReasonInvalidDigest}
	}
	return SignatureResult{IsSigned: true, IsValid: true, Reason: ReasonValid}
}

// hex(HMAC-SHA256(secret, manifest))
func SignManifest(secret, paymentID, requestID, ts string) string {
	manifest := "id:" + paymentID + ";request-id:" + requestID + ";ts:" + ts + ";"
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(manifest))
	return hex.EncodeToString(mac.Sum(nil))
}

func signatureParts(header string) map[string]string {
	out := map[string]string{}
	for _, entry := range strings.Split(header, ",") {
		kv := strings.Split(strings.TrimSpace(entry), "=")
		key := strings.ToLower(strings.TrimSpace(kv[0]))
		if key == "" {
			continue
		}
		val := ""
		if len(kv) > 1 {
			val = strings.Trim(strings.TrimSpace(kv[1]), `"`)
		}
		out[key] = val
	}
	return out
}
