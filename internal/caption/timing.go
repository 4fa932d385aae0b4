package caption

import (
	"fmt"
	"strconv"
	"time"
)

func clockParts(d time.Duration) (hours, minutes, seconds, millis int) {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	return int(ms / 3600000), int(ms/60000) % 60, int(ms/1000) % 60, int(ms % 1000)
}

// 00:00:00,000
func formatSRTTime(d time.Duration) string {
	h, m, s, ms := clockParts(d)
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

// 00:00.000, or 00:00:00.000 when there are hours or they are forced
func formatVTTTime(d time.Duration, forceHours bool) string {
	h, m, s, ms := clockParts(d)
	if h == 0 && !forceHours {
		return fmt.Sprintf("%02d:%02d.%03d", m, s, ms)
	}
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}

// 00:00:00.000
func formatDFXPTime(d time.Duration) string {
	h, m, s, ms := clockParts(d)
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}

// 0:00:00.00
func formatASSTime(d time.Duration) string {
	h, m, s, ms := clockParts(d)
	return fmt.Sprintf("%d:%02d:%02d.%02d", h, m, s, ms/10)
}

// builds a duration from clock fields; frac is the fractional-second digits
func clockDuration(hours, minutes, seconds, frac string) (time.Duration, error) {
	h, err := atoiOrZero(hours)
	if err != nil {
		return 0, err
	}
	m, err := strconv.Atoi(minutes)
	if err != nil {
		return 0, err
	}
	s, err := strconv.Atoi(seconds)
	if err != nil {
		return 0, err
	}
	if m > 59 || s > 59 {
		return 0, fmt.Errorf("field out of range in %s:%s:%s", hours, minutes, seconds)
	}

	d := time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second
	if frac != "" {
		f, err := fractionDuration(frac)
		if err != nil {
			return 0, err
		}
		d += f
	}
	return d, nil
}

// "5" -> 500ms, "05" -> 50ms, "0005" -> 500µs
func fractionDuration(digits string) (time.Duration, error) {
	if len(digits) > 9 {
		digits = digits[:9]
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, err
	}
	for i := len(digits); i < 9; i++ {
		n *= 10
	}
	return time.Duration(n), nil
}

func atoiOrZero(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
