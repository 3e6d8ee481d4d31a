package outship

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ID identifies a record. The zero value means unset.
type ID int64

// ParseID normalizes an identifier that may arrive as a string or a number.
// Empty strings and nil yield the zero ID.
func ParseID(v any) (ID, error) {
	switch t := v.(type) {
	case nil:
		return 0, nil
	case ID:
		return t, nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, InvalidIDError{Value: v}
		}
		return checkID(n, v)
	case json.Number:
		return ParseID(t.String())
	case int:
		return checkID(int64(t), v)
	case int8:
		return checkID(int64(t), v)
	case int16:
		return checkID(int64(t), v)
	case int32:
		return checkID(int64(t), v)
	case int64:
		return checkID(t, v)
	case uint8:
		return ID(t), nil
	case uint16:
		return ID(t), nil
	case uint32:
		return ID(t), nil
	case uint:
		if uint64(t) > math.MaxInt64 {
			return 0, InvalidIDError{Value: v}
		}
		return ID(t), nil
	case uint64:
		if t > math.MaxInt64 {
			return 0, InvalidIDError{Value: v}
		}
		return ID(t), nil
	case float64:
		if t != math.Trunc(t) || math.IsInf(t, 0) || t > math.MaxInt64 {
			return 0, InvalidIDError{Value: v}
		}
		return checkID(int64(t), v)
	}
	return 0, InvalidIDError{Value: v}
}

func checkID(n int64, raw any) (ID, error) {
	if n < 0 {
		return 0, InvalidIDError{Value: raw}
	}
	return ID(n), nil
}

// MustParseID is like ParseID but panics on malformed input.
func MustParseID(v any) ID {
	id, err := ParseID(v)
	if err != nil {
		panic(err)
	}
	return id
}

func (id ID) IsZero() bool {
	return id == 0
}

func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}
