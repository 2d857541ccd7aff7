package sys

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// ============================================================================
// String Utilities
// ============================================================================

// Truncate cuts s to at most maxLen runes. A cut string ends with "..." and is exactly maxLen runes long.
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// JoinSorted sorts a copy of items and joins them with ", ".
func JoinSorted(items []string) string {
	sorted := slices.Clone(items)
	slices.Sort(sorted)
	return strings.Join(sorted, ", ")
}

// ContainsLower checks if a string contains a substring (case-insensitive).
func ContainsLower(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// ============================================================================
// Time Utilities
// ============================================================================

func FormatDuration(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	h, m, s := int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	if m > 0 {
		return fmt.Sprintf("%dm %ds", m, s)
	}
	if s == 0 {
		return "1s"
	}
	return fmt.Sprintf("%ds", s)
}
