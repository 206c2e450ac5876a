package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetOptimalPoolSize(t *testing.T) {
	size := GetOptimalPoolSize()
	assert.GreaterOrEqual(t, size, 4)
	assert.LessOrEqual(t, size, 32)
}

func TestGetOptimalPoolSizeWithOverride(t *testing.T) {
	assert.Equal(t, 7, GetOptimalPoolSizeWithOverride(7))
	assert.Equal(t, GetOptimalPoolSize(), GetOptimalPoolSizeWithOverride(0))
	assert.Equal(t, GetOptimalPoolSize(), GetOptimalPoolSizeWithOverride(-3))
}
