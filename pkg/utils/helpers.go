package utils

import (
	"math"
	"strings"
)

// Round1 rounds to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Percent returns 100*part/total rounded to one decimal, or 0 when total is 0.
func Percent(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return Round1(100 * float64(part) / float64(total))
}

// SplitList splits a comma separated list, trimming entries and dropping
// empty ones.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// PathSegment returns the i-th segment of a slash separated URL path, or ""
// when the path is shorter.
func PathSegment(path string, i int) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if i < 0 || i >= len(segments) {
		return ""
	}
	return segments[i]
}
