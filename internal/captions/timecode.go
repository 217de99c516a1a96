package captions

import (
	"fmt"
	"math"
)

func clampSeconds(seconds float64) float64 {
	if math.IsNaN(seconds) || seconds < 0 {
		return 0
	}
	return seconds
}

// FormatASSTime renders seconds as H:MM:SS.cs. Every component truncates,
// including the centiseconds taken from the fractional second, so 0.57
// renders as .56 under binary floating point. Negative input renders as
// 0:00:00.00.
func FormatASSTime(seconds float64) string {
	seconds = clampSeconds(seconds)
	h := int64(math.Floor(seconds / 3600))
	m := int64(math.Floor(math.Mod(seconds, 3600) / 60))
	s := int64(math.Floor(math.Mod(seconds, 60)))
	cs := int64(math.Floor((seconds - math.Floor(seconds)) * 100))
	return fmt.Sprintf("%d:%02d:%02d.%02d", h, m, s, cs)
}

// FormatSRTTime renders seconds as HH:MM:SS,mmm rounded to the millisecond.
func FormatSRTTime(seconds float64) string {
	total := int64(math.Round(clampSeconds(seconds) * 1000))
	h := total / 3600000
	m := (total % 3600000) / 60000
	s := (total % 60000) / 1000
	ms := total % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

// centiseconds converts a duration to whole centiseconds for \k tags.
func centiseconds(seconds float64) int {
	if seconds <= 0 {
		return 0
	}
	return int(math.Round(seconds * 100))
}
