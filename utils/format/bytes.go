package format

import (
	"strconv"
	"strings"
)

var binaryUnits = []string{"B", "KiB", "MiB", "GiB", "TiB"}

// Size 以二进制单位展示字节数，保留一位小数，整数不带 .0
func Size(bytes int64) string {
	if bytes < 1024 {
		return strconv.FormatInt(bytes, 10) + " B"
	}

	value := float64(bytes)
	exp := 0
	for value >= 1024 && exp < len(binaryUnits)-1 {
		value /= 1024
		exp++
	}

	s := strings.TrimSuffix(strconv.FormatFloat(value, 'f', 1, 64), ".0")
	return s + " " + binaryUnits[exp]
}
