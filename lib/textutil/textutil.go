package textutil

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)
var separatorRegex = regexp.MustCompile(`[-\s]+`)

// NormalizeName lowercases a name and removes all whitespace.
func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

// NormalizeKey turns a free form identifier like "WeChat Official" or
// "wechat-official" into "wechat_official".
func NormalizeKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	return separatorRegex.ReplaceAllString(key, "_")
}

var ErrInvalidCount = errors.New("invalid count")

var countSuffixes = []struct {
	suffix     string
	multiplier float64
}{
	{"亿", 100_000_000},
	{"万", 10_000},
	{"b", 1_000_000_000},
	{"m", 1_000_000},
	{"k", 1_000},
}

// ParseCount parses human formatted counts such as "1,234", "1.2M", "35.6K",
// "3.4万" or "1.2亿".
func ParseCount(text string) (int64, error) {
	s := strings.ToLower(strings.TrimSpace(text))
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidCount)
	}

	multiplier := 1.0
	for _, cs := range countSuffixes {
		if strings.HasSuffix(s, cs.suffix) {
			multiplier = cs.multiplier
			s = strings.TrimSpace(strings.TrimSuffix(s, cs.suffix))
			break
		}
	}

	value, err := strconv.ParseFloat(s, 64)
	if err != nil || value < 0 || math.IsInf(value, 0) || math.IsNaN(value) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCount, text)
	}
	count := math.Round(value * multiplier)
	if count >= math.MaxInt64 {
		return 0, fmt.Errorf("%w: %q out of range", ErrInvalidCount, text)
	}
	return int64(count), nil
}
