package nvsettings

import (
	"errors"
	"strconv"
	"strings"
)

// ErrUnsupportedStatement mirrors STATUS_UNSUPPORTED_STATEMENT: the
// line didn't start with '$' or was missing its '='.
var ErrUnsupportedStatement = errors.New("nvsettings: unsupported statement")

// ErrBadNumberFormat mirrors STATUS_BAD_NUMBER_FORMAT.
var ErrBadNumberFormat = errors.New("nvsettings: bad number format")

// ExecuteLine applies one settings command line, e.g. "$7=36000" or
// the bare "$" dump request, following settings_execute_line. A bare
// "$" returns Dump()'s lines with a nil error; anything else returns
// no lines.
func ExecuteLine(s *Settings, line string) ([]string, error) {
	if !strings.HasPrefix(line, "$") {
		return nil, ErrUnsupportedStatement
	}
	rest := line[1:]
	if rest == "" {
		return s.Dump(), nil
	}

	eq := strings.IndexByte(rest, '=')
	if eq < 0 {
		return nil, ErrUnsupportedStatement
	}

	index, err := strconv.Atoi(rest[:eq])
	if err != nil {
		return nil, ErrBadNumberFormat
	}
	value, err := strconv.ParseFloat(rest[eq+1:], 32)
	if err != nil {
		return nil, ErrBadNumberFormat
	}

	if err := s.Edit(index, float32(value)); err != nil {
		return nil, err
	}
	return nil, nil
}
