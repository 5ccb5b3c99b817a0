package memutils

import (
	cerrors "github.com/cockroachdb/errors"
	"golang.org/x/exp/constraints"
)

type Number interface {
	constraints.Integer
}

func CheckPow2[T Number](number T, name string) error {
	if number == 0 || number&(number-1) != 0 {
		return cerrors.Wrapf(PowerOfTwoError, "%s is %d", name, number)
	}
	return nil
}

// AlignUp64 rounds value up to the next multiple of alignment, which must be a power of two.
func AlignUp64(value, alignment uint64) uint64 {
	return (value + alignment - 1) &^ (alignment - 1)
}

func AlignDown64(value, alignment uint64) uint64 {
	return value &^ (alignment - 1)
}

const addressBits = 48

// Address48 strips the sign-extension bits from a canonical GPU virtual address, leaving
// the 48-bit form the kernel expects in VM bind requests.
func Address48(address uint64) uint64 {
	return address & (1<<addressBits - 1)
}

// CanonicalAddress sign-extends bit 47 of a 48-bit GPU virtual address into the upper bits.
func CanonicalAddress(address uint64) uint64 {
	shift := 64 - addressBits
	return uint64(int64(address<<shift) >> shift)
}
