package slides

import (
	"strings"
	"unicode/utf8"
)

// Fit bounds one slide's points. Each point is cut to b.MaxBulletChars, then
// points are taken in order until b.MaxTotalChars is spent. When a point does
// not fit and more than b.MinMeaningfulChars remain, it is cut again to the
// remainder and becomes the last point. The rest are dropped. Lengths are
// counted in runes.
func Fit(points []string, b Budget) []string {
	b = b.Normalize()

	fitted := make([]string, 0, len(points))
	used := 0
	for _, p := range points {
		if utf8.RuneCountInString(p) > b.MaxBulletChars {
			p = shorten(p, b.MaxBulletChars)
		}
		n := utf8.RuneCountInString(p)
		if used+n <= b.MaxTotalChars {
			fitted = append(fitted, p)
			used += n
			continue
		}

		remaining := b.MaxTotalChars - used
		if remaining > b.MinMeaningfulChars && remaining > len(Ellipsis) {
			fitted = append(fitted, prefix(p, remaining-len(Ellipsis))+Ellipsis)
		}
		break
	}
	return fitted
}

// shorten cuts p so that it and the ellipsis fit in limit runes, backing up
// to the last '.' in the window when there is one.
func shorten(p string, limit int) string {
	window := prefix(p, limit-len(Ellipsis))
	if i := strings.LastIndexByte(window, '.'); i > 0 {
		window = window[:i]
	}
	return window + Ellipsis
}

// prefix returns the first n runes of s.
func prefix(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// TotalChars sums the rune length of points.
func TotalChars(points []string) int {
	total := 0
	for _, p := range points {
		total += utf8.RuneCountInString(p)
	}
	return total
}
