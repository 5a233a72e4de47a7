package format

import "testing"

func TestHumanizeBytes(t *testing.T) {
	tests := []struct {
		name string
		size int64
		want string
	}{
		{name: "empty source", size: 0, want: "0 B"},
		{name: "single entry", size: 28, want: "28 B"},
		{name: "just under a kilobyte", size: 1023, want: "1023 B"},
		{name: "small alternate list", size: 1536, want: "1.5 KB"},
		{name: "social list", size: 120 * 1024, want: "120.0 KB"},
		{name: "base list", size: 3565158, want: "3.4 MB"},
		{name: "everything merged", size: 9 * 1024 * 1024, want: "9.0 MB"},
		{name: "gigabytes", size: 3 * 1024 * 1024 * 1024, want: "3.0 GB"},
		{name: "beyond the largest unit", size: 2048 * 1024 * 1024 * 1024 * 1024, want: "2048.0 TB"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HumanizeBytes(tt.size); got != tt.want {
				t.Errorf("HumanizeBytes(%d) = %q, want %q", tt.size, got, tt.want)
			}
		})
	}
}

func TestCount(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{12345, "12,345"},
		{131072, "131,072"},
		{1234567, "1,234,567"},
		{-4200, "-4,200"},
	}
	for _, tt := range tests {
		if got := Count(tt.n); got != tt.want {
			t.Errorf("Count(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestFileSummary(t *testing.T) {
	if got := FileSummary(3565158, 131072); got != "3.4 MB, 131,072 lines" {
		t.Errorf("FileSummary() = %q", got)
	}
	if got := FileSummary(28, 1); got != "28 B, 1 line" {
		t.Errorf("FileSummary() = %q", got)
	}
}
