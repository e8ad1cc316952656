package utils

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestTruncatePath(t *testing.T) {
	long := "/storage/emulated/0/Android/data/com.example.app/cache/images/thumb_0001.jpg"

	tests := []struct {
		name  string
		path  string
		width int
		want  string
	}{
		{"fits", "/sdcard/a.tmp", 40, "/sdcard/a.tmp"},
		{"keeps tail directories", long, 40, ".../cache/images/thumb_0001.jpg"},
		{"only file name", long, 20, ".../thumb_0001.jpg"},
		{"long file name", long, 15, "...umb_0001.jpg"},
		{"tiny width", long, 5, "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncatePath(tt.path, tt.width)
			assert.Equal(t, tt.want, got)
			if tt.width >= 8 {
				assert.LessOrEqual(t, lipgloss.Width(got), tt.width)
			}
		})
	}
}

func TestTruncatePathKeepsFileName(t *testing.T) {
	path := "/" + strings.Repeat("deep/", 30) + "report.log"
	got := TruncatePath(path, 30)
	assert.True(t, strings.HasSuffix(got, "/report.log"))
	assert.True(t, strings.HasPrefix(got, ".../"))
}

func TestScrollOffset(t *testing.T) {
	tests := []struct {
		name                        string
		cursor, offset, total, page int
		want                        int
	}{
		{"everything fits", 3, 0, 5, 10, 0},
		{"cursor on page", 4, 2, 20, 5, 2},
		{"cursor above page", 1, 5, 20, 5, 1},
		{"cursor below page", 12, 0, 20, 5, 8},
		{"offset past end", 19, 18, 20, 5, 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ScrollOffset(tt.cursor, tt.offset, tt.total, tt.page))
		})
	}
}

func TestCalculatePageSize(t *testing.T) {
	assert.Equal(t, 14, CalculatePageSize(24))
	assert.Equal(t, 5, CalculatePageSize(8), "never below the minimum")
}

func TestGetSizeWarningBanner(t *testing.T) {
	assert.Empty(t, GetSizeWarningBanner(0, 0), "no size reported yet")
	assert.Empty(t, GetSizeWarningBanner(120, 40))
	assert.Contains(t, GetSizeWarningBanner(60, 20), "60x20")
}
