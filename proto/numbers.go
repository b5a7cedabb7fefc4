package proto

import (
	"fmt"
	"math"
	"strconv"
)

const (
	MinFieldNumber = 1
	MaxFieldNumber = 1<<29 - 1

	// Field numbers in this range are reserved for the protobuf implementation.
	FirstReservedFieldNumber = 19000
	LastReservedFieldNumber  = 19999
)

// ParseInt parses an integer literal: decimal, hexadecimal with a 0x prefix,
// or octal with a leading zero, optionally preceded by a minus sign.
func ParseInt(text string) (int64, error) {
	return strconv.ParseInt(text, 0, 64)
}

func checkFieldNumber(text string) (uint32, error) {
	n, err := ParseInt(text)
	if err != nil {
		return 0, err
	}
	if n < MinFieldNumber || n > MaxFieldNumber {
		return 0, fmt.Errorf("%s is out of range %d..%d", text, MinFieldNumber, MaxFieldNumber)
	}
	if n >= FirstReservedFieldNumber && n <= LastReservedFieldNumber {
		return 0, fmt.Errorf("%s is in the reserved range %d..%d", text, FirstReservedFieldNumber, LastReservedFieldNumber)
	}
	return uint32(n), nil
}

func checkEnumNumber(text string) (int32, error) {
	n, err := ParseInt(text)
	if err != nil {
		return 0, err
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		return 0, fmt.Errorf("%s does not fit in 32 bits", text)
	}
	return int32(n), nil
}
