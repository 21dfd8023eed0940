package utils

import (
	"strconv"
	"strings"
)

var sizeUnits = [...]string{"b", "kb", "mb", "gb", "tb", "pb"}

// FormatFileSize converts a byte length into a short lower-case unit string used in scan logs,
// e.g. 512b, 1.5kb, 10mb.
func FormatFileSize(byteCount int64) string {
	if byteCount < 0 {
		byteCount = 0
	}
	if byteCount < 1024 {
		return strconv.FormatInt(byteCount, 10) + sizeUnits[0]
	}
	scaled := float64(byteCount)
	unitIndex := 0
	for scaled >= 1024 && unitIndex < len(sizeUnits)-1 {
		scaled /= 1024
		unitIndex++
	}
	precision := 0
	if scaled < 10 {
		precision = 1
	}
	formatted := strconv.FormatFloat(scaled, 'f', precision, 64)
	formatted = strings.TrimSuffix(formatted, ".0")
	return formatted + sizeUnits[unitIndex]
}
