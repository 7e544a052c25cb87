package callog

import (
	"strconv"
	"strings"
)

// ParseDurationSeconds converts a raw duration cell into seconds.
// Plain numbers are returned as-is, negatives included; clock-style "MM:SS"
// and "HH:MM:SS" text is expanded,
// with fractional parts allowed in any position. Everything else, including
// the empty cell, reports ok=false. No failure mode escapes as an error.
func ParseDurationSeconds(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, true
	}
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, false
	}
	nums := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return 0, false
		}
		nums[i] = v
	}
	if len(nums) == 2 {
		return nums[0]*60 + nums[1], true
	}
	return nums[0]*3600 + nums[1]*60 + nums[2], true
}
