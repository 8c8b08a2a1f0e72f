package model

import (
	"crypto/rand"
	"math/big"
	"strings"
)

const (
	PublicCodePrefix = "SIESTA-"
	publicCodeLength = 8
	// 0/O, 1/I を除いた32文字
	publicCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// 顧客に見せる注文コード。一意性はDBのunique制約で担保する
func GeneratePublicOrderCode() (string, error) {
	var b strings.Builder
	b.WriteString(PublicCodePrefix)

	max := big.NewInt(int64(len(publicCodeAlphabet)))
	for i := 0; i < publicCodeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(publicCodeAlphabet[n.Int64()])
	}
	return b.String(), nil
}

func IsPublicOrderCode(s string) bool {
	if !strings.HasPrefix(s, PublicCodePrefix) {
		return false
	}
	rest := strings.TrimPrefix(s, PublicCodePrefix)
	if len(rest) != publicCodeLength {
		return false
	}
	for i := 0; i < len(rest); i++ {
		if !strings.ContainsRune(publicCodeAlphabet, rune(rest[i])) {
			return false
		}
	}
	return true
}
