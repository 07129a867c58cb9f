package memutils

import (
	"math/bits"
	"unsafe"

	cerrors "github.com/cockroachdb/errors"
)

type Number interface {
	~int | ~uint
}

// CheckPow2 returns an error wrapping ErrPowerOfTwo if number is not a power of two. Zero is rejected.
func CheckPow2[T Number](number T, name string) error {
	if number == 0 || number&(number-1) != 0 {
		return cerrors.Wrapf(ErrPowerOfTwo, "%s is %d", name, number)
	}
	return nil
}

// Log2 returns the base-2 logarithm of a power of two
func Log2(value uint) uint {
	return uint(bits.TrailingZeros(value))
}

func AlignUp(value int, alignment uint) int {
	return (value + int(alignment) - 1) & int(^(alignment - 1))
}

// SizeOf returns the number of bytes a value of type T occupies when stored inline in a record
func SizeOf[T any]() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}
