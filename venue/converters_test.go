package venue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFloatToPrice(t *testing.T) {
	assert.Equal(t, 100.0, FloatToPrice(100.004, 0.01))
	assert.Equal(t, 100.1, FloatToPrice(100.096, 0.01))
	assert.Equal(t, 0.1, FloatToPrice(0.096, 0.1))
	// без накопления двоичной погрешности
	assert.Equal(t, 0.3, FloatToPrice(0.30000000000000004, 0.1))
	assert.Equal(t, 2345.5, FloatToPrice(2345.52, 0.5))
}

func TestCreateUid(t *testing.T) {
	assert.NotEqual(t, CreateUid(), CreateUid())
	assert.Len(t, CreateUid(), 36)
}
