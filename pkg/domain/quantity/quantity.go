// Package quantity parses resource quantities written in plugin descriptors.
//
// Descriptors write quantities in kubernetes' manner, but restricted:
//
//   - cpu: millicores. "<n>m" or bare integer n (also in millicores).
//   - memory: "<n>Mi" or "<n>Gi". Bare integer n is taken as Mi.
//   - counts (workers, gpu): non-negative integer, as a number or a string.
//     Fractional numbers are truncated.
package quantity

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"k8s.io/apimachinery/pkg/api/resource"
)

var ErrInvalidQuantity = errors.New("invalid quantity")

var (
	cpuPattern    = regexp.MustCompile(`^[0-9]+m?$`)
	memoryPattern = regexp.MustCompile(`^[0-9]+(Mi|Gi)?$`)
)

const mebi = 1024 * 1024

// CPU parses cpu quantity into millicores.
func CPU(v any) (int64, error) {
	s, err := text(v)
	if err != nil {
		return 0, fmt.Errorf("%w: cpu: %w", ErrInvalidQuantity, err)
	}
	if !cpuPattern.MatchString(s) {
		return 0, fmt.Errorf(
			`%w: cpu: %q: should be an integer followed by "m" (millicores), or an integer`,
			ErrInvalidQuantity, s,
		)
	}
	if !strings.HasSuffix(s, "m") {
		i, err := strconv.ParseInt(s, 10, 64)
		return bounded("cpu", i, err)
	}

	q, err := resource.ParseQuantity(s)
	if err != nil {
		return 0, fmt.Errorf("%w: cpu: %q: %w", ErrInvalidQuantity, s, err)
	}
	return bounded("cpu", q.MilliValue(), nil)
}

// Memory parses memory quantity into Mi.
func Memory(v any) (int64, error) {
	s, err := text(v)
	if err != nil {
		return 0, fmt.Errorf("%w: memory: %w", ErrInvalidQuantity, err)
	}
	if !memoryPattern.MatchString(s) {
		return 0, fmt.Errorf(
			`%w: memory: %q: should be an integer followed by "Mi" or "Gi"`,
			ErrInvalidQuantity, s,
		)
	}
	if !strings.HasSuffix(s, "i") {
		i, err := strconv.ParseInt(s, 10, 64)
		return bounded("memory", i, err)
	}

	q, err := resource.ParseQuantity(s)
	if err != nil {
		return 0, fmt.Errorf("%w: memory: %q: %w", ErrInvalidQuantity, s, err)
	}
	return bounded("memory", q.Value()/mebi, nil)
}

// Count parses non-negative integer.
//
// Numbers with fraction are truncated toward zero. Strings should be integer literals.
func Count(v any) (int64, error) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return nonNegative(i)
		}
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidQuantity, n)
		}
		return Count(f)
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, fmt.Errorf("%w: %v is not an integer", ErrInvalidQuantity, n)
		}
		t := math.Trunc(n)
		if t < math.MinInt32 || math.MaxInt32 < t {
			return 0, fmt.Errorf("%w: %v is out of range", ErrInvalidQuantity, n)
		}
		return nonNegative(int64(t))
	case int:
		return nonNegative(int64(n))
	case int64:
		return nonNegative(n)
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not an integer", ErrInvalidQuantity, n)
		}
		return nonNegative(i)
	}
	return 0, fmt.Errorf("%w: %v is not an integer", ErrInvalidQuantity, v)
}

func nonNegative(i int64) (int64, error) {
	if i < 0 {
		return 0, fmt.Errorf("%w: %d is negative", ErrInvalidQuantity, i)
	}
	if math.MaxInt32 < i {
		return 0, fmt.Errorf("%w: %d is too large", ErrInvalidQuantity, i)
	}
	return i, nil
}

func bounded(name string, v int64, err error) (int64, error) {
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrInvalidQuantity, name, err)
	}
	if math.MaxInt32 < v {
		return 0, fmt.Errorf("%w: %s: %d is too large", ErrInvalidQuantity, name, v)
	}
	return v, nil
}

func text(v any) (string, error) {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s), nil
	case json.Number:
		return s.String(), nil
	case float64:
		if s != math.Trunc(s) {
			return "", fmt.Errorf("%v is not an integer", s)
		}
		return strconv.FormatInt(int64(s), 10), nil
	case int:
		return strconv.Itoa(s), nil
	case int64:
		return strconv.FormatInt(s, 10), nil
	}
	return "", fmt.Errorf("unexpected value: %v", v)
}
