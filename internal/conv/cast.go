package conv

import (
	"fmt"
	"math"
)

// MaxUnsigned returns the largest unsigned value representable in width bytes.
// Width must be in [1, 8].
func MaxUnsigned(width int) (uint64, error) {
	if width < 1 || width > 8 {
		return 0, fmt.Errorf("invalid width: %d (want 1..8)", width)
	}
	if width == 8 {
		return math.MaxUint64, nil
	}
	return 1<<(8*uint(width)) - 1, nil
}

// CeilDiv returns ceil(a/b) for a >= 0 and b > 0.
func CeilDiv(a, b int) int {
	return (a + b - 1) / b
}
