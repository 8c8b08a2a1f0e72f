package model_test

import (
	"strings"
	"testing"

	"storefront/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratePublicOrderCode(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 200; i++ {
		code, err := model.GeneratePublicOrderCode()
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(code, model.PublicCodePrefix))
		assert.True(t, model.IsPublicOrderCode(code), code)
		assert.NotContains(t, strings.TrimPrefix(code, model.PublicCodePrefix), "O")
		assert.NotContains(t, strings.TrimPrefix(code, model.PublicCodePrefix), "I")
		seen[code] = struct{}{}
	}
	// 32^8通りなので200件で衝突はまず起きない
	assert.Len(t, seen, 200)
}

func TestIsPublicOrderCode(t *testing.T) {
	assert.True(t, model.IsPublicOrderCode("SIESTA-ABCD2345"))
	assert.False(t, model.IsPublicOrderCode("SIESTA-abcd2345"))
	assert.False(t, model.IsPublicOrderCode("SIESTA-ABCD234"))
	assert.False(t, model.IsPublicOrderCode("SIESTA-ABCD0345"))
	assert.False(t, model.IsPublicOrderCode("OTHER-ABCD2345"))
	assert.False(t, model.IsPublicOrderCode(""))
}
