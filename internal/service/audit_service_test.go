package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashIP(t *testing.T) {
	svc, err := NewAuditService(nil, "pepper")
	require.NoError(t, err)

	h := svc.HashIP("203.0.113.7")
	assert.Len(t, h, 64)
	assert.Equal(t, h, svc.HashIP("203.0.113.7"))
	assert.NotEqual(t, h, svc.HashIP("203.0.113.8"))
	assert.NotContains(t, h, "203")
	assert.Empty(t, svc.HashIP(""))

	other, err := NewAuditService(nil, "other-pepper")
	require.NoError(t, err)
	assert.NotEqual(t, h, other.HashIP("203.0.113.7"))
}

func TestNewAuditServiceRejectsLongKey(t *testing.T) {
	_, err := NewAuditService(nil, strings.Repeat("k", 65))
	assert.Error(t, err)
}
