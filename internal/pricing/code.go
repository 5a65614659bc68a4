package pricing

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	codeDigits = 8
	maxCode    = 99999999
)

var (
	ErrCodeOverflow = errors.New("sequential code counter exhausted")
	ErrInvalidCode  = errors.New("invalid sequential code")
)

// FormatCode renders prefix followed by n zero-padded to eight digits, e.g. PRD00000001.
func FormatCode(prefix string, n int64) (string, error) {
	if n < 1 || n > maxCode {
		return "", fmt.Errorf("%w: %s%d", ErrCodeOverflow, prefix, n)
	}
	return fmt.Sprintf("%s%0*d", prefix, codeDigits, n), nil
}

// ParseCode extracts the numeric suffix of a code produced by FormatCode.
func ParseCode(prefix, code string) (int64, error) {
	suffix, ok := strings.CutPrefix(code, prefix)
	if !ok || len(suffix) != codeDigits {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCode, code)
	}
	n, err := strconv.ParseInt(suffix, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCode, code)
	}
	return n, nil
}

// NextCode returns the code following last, or the first code when last is empty.
func NextCode(prefix, last string) (string, error) {
	if last == "" {
		return FormatCode(prefix, 1)
	}
	n, err := ParseCode(prefix, last)
	if err != nil {
		return "", err
	}
	return FormatCode(prefix, n+1)
}
