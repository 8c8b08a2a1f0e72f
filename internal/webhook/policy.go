package webhook

import (
	"strings"

	"storefront/internal/domain/model"
)

type Policy string

const (
	// 署名なしは全部拒否
	PolicyStrict Policy = "strict"
	// 旧形式(topic+id)か、シークレット未設定のときだけ署名なしを許可
	PolicyCompat Policy = "compat"
	// 署名を一切見ない
	PolicySkipSignature Policy = "skip_signature"
)

// 不明な値はcompat
func ParsePolicy(s string) Policy {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(PolicyStrict):
		return PolicyStrict
	case string(PolicySkipSignature):
		return PolicySkipSignature
	default:
		return PolicyCompat
	}
}

// 署名ポリシーの判定結果。Acceptedでなければ処理せずに200で返す
type Decision struct {
	Accepted bool
	Status   model.PaymentProcessStatus
	Reason   string
}

func Evaluate(policy Policy, sig SignatureResult, isLegacyFormat bool) Decision {
	if policy == PolicySkipSignature {
		return Decision{Accepted: true}
	}

	// 署名付きで不正なものは旧形式でも拒否
	if sig.IsSigned && !sig.IsValid {
		return Decision{
			Status: model.PaymentEventError,
			Reason: "invalid_signature:" + string(sig.Reason),
		}
	}

	if !sig.IsSigned && policy == PolicyStrict {
		return Decision{
			Status: model.PaymentEventError,
			Reason: "unsigned_request_strict_policy",
		}
	}

	if !sig.IsSigned && policy == PolicyCompat && !isLegacyFormat && sig.Reason != ReasonMissingSecret {
		return Decision{
			Status: model.PaymentEventIgnored,
			Reason: "unsigned_request_non_legacy",
		}
	}

	return Decision{Accepted: true}
}
