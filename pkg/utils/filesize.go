package utils

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// Byte units. Every size in the module (thresholds, filters, display) uses
// the binary base: 1 KB = 1024 bytes.
const (
	B  = 1
	KB = 1024 * B
	MB = 1024 * KB
	GB = 1024 * MB
	TB = 1024 * GB
)

// FormatBytes converts bytes to human-readable format
func FormatBytes(bytes int64) string {
	if bytes < 0 {
		return "0 B"
	}
	return humanize.IBytes(uint64(bytes))
}

// FormatCount formats a file count with thousands separators, e.g. "1,234"
func FormatCount(n int) string {
	return humanize.Comma(int64(n))
}

// ParseSize converts human-readable size to bytes ("500MB", "1.5 GB", "1024").
func ParseSize(size string) (int64, error) {
	s := strings.TrimSpace(size)
	if s == "" {
		return 0, fmt.Errorf("invalid size format: %q", size)
	}

	i := 0
	for i < len(s) && (s[i] >= '0' && s[i] <= '9' || s[i] == '.') {
		i++
	}
	if i == 0 {
		return 0, fmt.Errorf("invalid size format: %s", size)
	}

	value, err := strconv.ParseFloat(s[:i], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size format: %s", size)
	}

	unit := strings.ToUpper(strings.TrimSpace(s[i:]))
	switch unit {
	case "", "B":
		return int64(value), nil
	case "KB", "K", "KIB":
		return int64(value * KB), nil
	case "MB", "M", "MIB":
		return int64(value * MB), nil
	case "GB", "G", "GIB":
		return int64(value * GB), nil
	case "TB", "T", "TIB":
		return int64(value * TB), nil
	default:
		return 0, fmt.Errorf("unknown unit: %s", unit)
	}
}

// SumSizes adds up a slice of sizes
func SumSizes(sizes []int64) int64 {
	var total int64
	for _, size := range sizes {
		total += size
	}
	return total
}
