package utils

import "testing"

func TestParseSize(t *testing.T) {
	tests := []struct {
		input string
		want  int64
	}{
		{"1024", 1024},
		{"0", 0},
		{"1KB", KB},
		{"1kb", KB},
		{"5MB", 5 * MB},
		{"5 MB", 5 * MB},
		{"1.5GB", GB + GB/2},
		{" 10M ", 10 * MB},
		{"2MiB", 2 * MB},
		{"1TB", TB},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSize(tt.input)
			if err != nil {
				t.Fatalf("ParseSize(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseSize(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseSizeInvalid(t *testing.T) {
	for _, input := range []string{"", "   ", "MB", "abc", "10XB", "-5MB"} {
		t.Run(input, func(t *testing.T) {
			if _, err := ParseSize(input); err == nil {
				t.Errorf("ParseSize(%q) expected error", input)
			}
		})
	}
}

func TestUnitsAreBinary(t *testing.T) {
	if MB != 1048576 {
		t.Errorf("MB = %d, want 1048576", MB)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{-1, "0 B"},
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{5 * MB, "5.0 MiB"},
	}

	for _, tt := range tests {
		if got := FormatBytes(tt.in); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSumSizes(t *testing.T) {
	if got := SumSizes([]int64{1024, 2048, 4096}); got != 7168 {
		t.Errorf("SumSizes = %d, want 7168", got)
	}
	if got := SumSizes(nil); got != 0 {
		t.Errorf("SumSizes(nil) = %d, want 0", got)
	}
}

func TestFormatCount(t *testing.T) {
	tests := map[int]string{0: "0", 999: "999", 1234: "1,234", 1000000: "1,000,000"}
	for n, want := range tests {
		if got := FormatCount(n); got != want {
			t.Errorf("FormatCount(%d) = %q, want %q", n, got, want)
		}
	}
}
