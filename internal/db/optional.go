package db

import (
	"bytes"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Optional is a value that may be absent. Absent values are stored as SQL NULL
// and encoded as JSON null; an empty string or zero value never reaches the
// database.
type Optional[T comparable] struct {
	sql.Null[T]
}

// Some wraps a present value without normalizing it.
func Some[T comparable](v T) Optional[T] {
	return Optional[T]{sql.Null[T]{V: v, Valid: true}}
}

// None returns an absent value.
func None[T comparable]() Optional[T] {
	return Optional[T]{}
}

// Normalize maps the zero value (empty string, 0, zero time) to None.
func Normalize[T comparable](v T) Optional[T] {
	var zero T
	if v == zero {
		return None[T]()
	}
	return Some(v)
}

// Normalized re-applies Normalize to a present value.
func (o Optional[T]) Normalized() Optional[T] {
	if !o.Valid {
		return o
	}
	return Normalize(o.V)
}

// Get returns the value and whether it is present.
func (o Optional[T]) Get() (T, bool) {
	return o.V, o.Valid
}

// OrZero returns the value, or the zero value when absent.
func (o Optional[T]) OrZero() T {
	if !o.Valid {
		var zero T
		return zero
	}
	return o.V
}

// String renders the value, or "" when absent.
func (o Optional[T]) String() string {
	if !o.Valid {
		return ""
	}
	if t, ok := any(o.V).(time.Time); ok {
		return FormatTimestamp(t)
	}
	return fmt.Sprint(o.V)
}

// Value implements driver.Valuer. Timestamps are written in the storage layout.
func (o Optional[T]) Value() (driver.Value, error) {
	if !o.Valid {
		return nil, nil
	}
	if t, ok := any(o.V).(time.Time); ok {
		return FormatTimestamp(t), nil
	}
	return o.Null.Value()
}

// Scan implements sql.Scanner. Timestamps are accepted as text or time.Time.
func (o *Optional[T]) Scan(src any) error {
	p, ok := any(&o.V).(*time.Time)
	if !ok {
		return o.Null.Scan(src)
	}

	switch v := src.(type) {
	case nil:
		*o = None[T]()
		return nil
	case time.Time:
		*p = v.UTC()
		o.Valid = true
		return nil
	}

	var s sql.NullString
	if err := s.Scan(src); err != nil {
		return err
	}
	if !s.Valid || s.String == "" {
		*o = None[T]()
		return nil
	}
	t, err := ParseTimestamp(s.String)
	if err != nil {
		return err
	}
	*p = t
	o.Valid = true
	return nil
}

// MarshalJSON encodes an absent value as null.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.V)
}

// UnmarshalJSON maps null and "" to None. Numeric optionals also accept
// numeric strings; timestamps also accept date-only and storage layouts.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) || bytes.Equal(data, []byte(`""`)) {
		*o = None[T]()
		return nil
	}

	var v T
	err := json.Unmarshal(data, &v)
	if err == nil {
		*o = Normalize(v)
		return nil
	}
	if len(data) == 0 || data[0] != '"' {
		return err
	}

	var s string
	if jerr := json.Unmarshal(data, &s); jerr != nil {
		return err
	}
	s = strings.TrimSpace(s)

	switch p := any(&v).(type) {
	case *int64:
		n, perr := strconv.ParseInt(s, 10, 64)
		if perr != nil {
			return fmt.Errorf("parse %q as integer: %w", s, perr)
		}
		*p = n
	case *time.Time:
		t, perr := ParseTimestamp(s)
		if perr != nil {
			return perr
		}
		*p = t
	default:
		return err
	}

	*o = Normalize(v)
	return nil
}

// MarshalYAML encodes an absent value as null.
func (o Optional[T]) MarshalYAML() (any, error) {
	if !o.Valid {
		return nil, nil
	}
	if t, ok := any(o.V).(time.Time); ok {
		return FormatTimestamp(t), nil
	}
	return o.V, nil
}
