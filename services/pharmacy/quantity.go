package pharmacy

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	minReservedQty = 1
	maxReservedQty = 14
)

var intPattern = regexp.MustCompile(`\d+`)

// dailyDoses estimates doses per day from a free-text frequency string.
func dailyDoses(frequency string) int {
	f := strings.ToLower(frequency)

	switch {
	case strings.Contains(f, "once"):
		return 1
	case strings.Contains(f, "twice"), strings.Contains(f, "every 12"):
		return 2
	case strings.Contains(f, "three"), strings.Contains(f, "thrice"):
		return 3
	case strings.Contains(f, "four"):
		return 4
	}

	if strings.Contains(f, "every") && strings.Contains(f, "hour") {
		if m := intPattern.FindString(f); m != "" {
			hours, _ := strconv.Atoi(m)
			if hours > 0 {
				doses := int(math.Round(24.0 / float64(hours)))
				if doses < 1 {
					doses = 1
				}
				return doses
			}
		}
	}
	// Unrecognized frequency text reserves conservatively.
	return 1
}

// durationDays takes the largest number in a free-text duration string, so
// "3-5 days" reserves for the longer course.
func durationDays(duration string) int {
	days := 0
	for _, m := range intPattern.FindAllString(duration, -1) {
		if v, err := strconv.Atoi(m); err == nil && v > days {
			days = v
		}
	}
	if days == 0 {
		days = 3
	}
	return days
}

// estimatedQuantity is the units to reserve for a full course, clamped to a
// sane dispensing range.
func estimatedQuantity(frequency, duration string) int {
	qty := dailyDoses(frequency) * durationDays(duration)
	if qty < minReservedQty {
		qty = minReservedQty
	}
	if qty > maxReservedQty {
		qty = maxReservedQty
	}
	return qty
}
