// Package format renders hosts-file sizes and line counts for people.
package format

import (
	"strconv"
)

var units = [...]string{"B", "KB", "MB", "GB", "TB"}

// HumanizeBytes renders a size in binary units: "512 B", "3.4 MB".
func HumanizeBytes(b int64) string {
	if b < 1024 {
		return strconv.FormatInt(b, 10) + " " + units[0]
	}
	v := float64(b)
	i := 0
	for v >= 1024 && i < len(units)-1 {
		v /= 1024
		i++
	}
	return strconv.FormatFloat(v, 'f', 1, 64) + " " + units[i]
}

// Count renders n with comma thousands separators: 131072 -> "131,072".
// Blocklists run to hundreds of thousands of lines.
func Count(n int) string {
	s := strconv.Itoa(n)
	neg := n < 0
	if neg {
		s = s[1:]
	}
	if len(s) > 3 {
		out := make([]byte, 0, len(s)+len(s)/3)
		lead := len(s) % 3
		if lead == 0 {
			lead = 3
		}
		out = append(out, s[:lead]...)
		for i := lead; i < len(s); i += 3 {
			out = append(out, ',')
			out = append(out, s[i:i+3]...)
		}
		s = string(out)
	}
	if neg {
		return "-" + s
	}
	return s
}

// Lines renders a line count with its unit: "1 line", "131,072 lines".
func Lines(n int) string {
	if n == 1 {
		return "1 line"
	}
	return Count(n) + " lines"
}

// FileSummary renders the size and line count of a hosts file:
// "3.4 MB, 131,072 lines".
func FileSummary(size int64, lines int) string {
	return HumanizeBytes(size) + ", " + Lines(lines)
}
