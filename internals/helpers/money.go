package helper

import (
	"fmt"
	"math"
)

// Amounts are stored in minor units (paise / cents).

func ToMinor(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func FormatMinor(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}
