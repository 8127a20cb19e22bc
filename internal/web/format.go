package web

import "fmt"

var byteUnits = [...]string{"B", "KB", "MB", "GB"}

// FormatBytes renders a byte count for display: divide by 1024 up to three
// times, 0 decimals when the value reaches double digits (or was never
// divided), 1 decimal otherwise. Negative counts are treated as unknown and
// render "-".
func FormatBytes(b int64) string {
	if b < 0 {
		return "-"
	}
	v := float64(b)
	unit := 0
	for v >= 1024 && unit < len(byteUnits)-1 {
		v /= 1024
		unit++
	}
	if v >= 10 || unit == 0 {
		return fmt.Sprintf("%.0f %s", v, byteUnits[unit])
	}
	return fmt.Sprintf("%.1f %s", v, byteUnits[unit])
}
