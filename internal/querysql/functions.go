package querysql

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// SQL function names the compiled statements call. The store registers
// Regexp and ToDouble under these names on every connection.
const (
	FuncRegexp   = "regexp"
	FuncToDouble = "nlq_to_double"
)

var regexCache sync.Map // pattern → *regexp.Regexp

func cachedRegexp(pattern string) (*regexp.Regexp, error) {
	if re, ok := regexCache.Load(pattern); ok {
		return re.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	regexCache.Store(pattern, re)
	return re, nil
}

// Regexp implements "value REGEXP pattern". SQLite NULL arrives as a nil
// byte slice and never matches.
func Regexp(pattern string, value any) (bool, error) {
	text, ok := textOf(value)
	if !ok {
		return false, nil
	}
	re, err := cachedRegexp(pattern)
	if err != nil {
		return false, err
	}
	return re.MatchString(text), nil
}

// ToDouble coerces a stored value to float64. Missing values yield onNull;
// values that are present but not numeric yield onError.
func ToDouble(value, onError, onNull any) float64 {
	errVal, nullVal := numberOr(onError, 0), numberOr(onNull, 0)
	switch v := value.(type) {
	case nil:
		return nullVal
	case []byte:
		if v == nil {
			return nullVal
		}
		return parseOr(string(v), errVal)
	case int64:
		return float64(v)
	case float64:
		return v
	case bool:
		if v {
			return 1
		}
		return 0
	case string:
		return parseOr(v, errVal)
	}
	return errVal
}

func parseOr(s string, fallback float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return fallback
	}
	return f
}

func numberOr(v any, fallback float64) float64 {
	switch n := v.(type) {
	case int64:
		return float64(n)
	case float64:
		return n
	}
	return fallback
}

func textOf(value any) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case []byte:
		if v == nil {
			return "", false
		}
		return string(v), true
	case string:
		return v, true
	case int64:
		return strconv.FormatInt(v, 10), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	}
	return fmt.Sprint(value), true
}
