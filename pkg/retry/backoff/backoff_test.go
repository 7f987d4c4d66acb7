package backoff

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConstant(t *testing.T) {
	s := Constant(100 * time.Millisecond)

	for i := uint(0); i < 10; i++ {
		assert.Equal(t, 100*time.Millisecond, s(i))
	}
}

func TestExponential(t *testing.T) {
	s := Exponential(2*time.Second, 3.0)

	assert.Equal(t, 2*time.Second, s(1))  // 2*3^0
	assert.Equal(t, 6*time.Second, s(2))  // 2*3^1
	assert.Equal(t, 18*time.Second, s(3)) // 2*3^2
	assert.Equal(t, 54*time.Second, s(4)) // 2*3^3

	// Attempt 0 is treated as the first attempt.
	assert.Equal(t, 2*time.Second, s(0))
}

func TestExponential_Saturates(t *testing.T) {
	s := BinaryExponential(time.Second)

	assert.Equal(t, time.Duration(math.MaxInt64), s(200))
	assert.Equal(t, time.Duration(math.MaxInt64), s(math.MaxUint32))
}

func TestBinaryExponential(t *testing.T) {
	binExp := BinaryExponential(500 * time.Millisecond)

	assert.Equal(t, 500*time.Millisecond, binExp(1))
	assert.Equal(t, time.Second, binExp(2))
	assert.Equal(t, 2*time.Second, binExp(3))
	assert.Equal(t, 4*time.Second, binExp(4))
}
