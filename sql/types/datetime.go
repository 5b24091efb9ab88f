package types

import (
	"fmt"
	"time"

	"github.com/vinedb/vine/sql"
)

type dateTimeKind int

const (
	kindDate dateTimeKind = iota
	kindTime
	kindDateTime
	kindTimestamp
)

type dateTimeType struct {
	kind      dateTimeKind
	precision int
}

func (t dateTimeType) Tag() sql.ValueTag {
	switch t.kind {
	case kindDate:
		return sql.TagDate
	case kindTime:
		return sql.TagTime
	case kindTimestamp:
		return sql.TagTimestamp
	default:
		return sql.TagDateTime
	}
}

func (t dateTimeType) String() string {
	switch t.kind {
	case kindDate:
		return "DATE"
	case kindTime:
		return "TIME"
	case kindTimestamp:
		return "TIMESTAMP"
	default:
		return "DATETIME"
	}
}

func (t dateTimeType) Zero() interface{} {
	if t.kind == kindTime {
		return time.Duration(0)
	}
	return time.Unix(0, 0).UTC()
}

func (t dateTimeType) Promote() sql.Type { return t }

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04:05"
)

func (t dateTimeType) Convert(v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	if t.kind == kindTime {
		switch d := v.(type) {
		case time.Duration:
			return d, nil
		case string:
			var h, m, s int
			if _, err := fmt.Sscanf(d, "%d:%d:%d", &h, &m, &s); err != nil {
				return nil, sql.ErrTypeMismatch.New(v, v, "TIME")
			}
			return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second, nil
		default:
			return nil, sql.ErrTypeMismatch.New(v, v, "TIME")
		}
	}
	switch d := v.(type) {
	case time.Time:
		return d.UTC(), nil
	case string:
		layout := dateTimeLayout
		if t.kind == kindDate {
			layout = dateLayout
		}
		parsed, err := time.Parse(layout, d)
		if err != nil {
			// Fall back to the other layout in case a DATE string was
			// handed to a DATETIME column or vice versa.
			alt := dateLayout
			if layout == dateLayout {
				alt = dateTimeLayout
			}
			parsed, err = time.Parse(alt, d)
			if err != nil {
				return nil, sql.ErrTypeMismatch.New(v, v, t.String())
			}
		}
		return parsed.UTC(), nil
	default:
		return nil, sql.ErrTypeMismatch.New(v, v, t.String())
	}
}

func (t dateTimeType) Compare(a, b interface{}) (int, error) {
	if a == nil && b == nil {
		return 0, nil
	}
	if a == nil {
		return -1, nil
	}
	if b == nil {
		return 1, nil
	}
	if t.kind == kindTime {
		ad, bd := a.(time.Duration), b.(time.Duration)
		switch {
		case ad < bd:
			return -1, nil
		case ad > bd:
			return 1, nil
		default:
			return 0, nil
		}
	}
	at, bt := a.(time.Time), b.(time.Time)
	switch {
	case at.Before(bt):
		return -1, nil
	case at.After(bt):
		return 1, nil
	default:
		return 0, nil
	}
}

var (
	Date      sql.Type = dateTimeType{kind: kindDate}
	Time      sql.Type = dateTimeType{kind: kindTime}
	DateTime  sql.Type = dateTimeType{kind: kindDateTime, precision: 6}
	Timestamp sql.Type = dateTimeType{kind: kindTimestamp, precision: 6}
)

// CreateDatetimeType returns DATETIME/TIMESTAMP with the given fractional-
// second precision.
func CreateDatetimeType(timestamp bool, precision int) sql.Type {
	if timestamp {
		return dateTimeType{kind: kindTimestamp, precision: precision}
	}
	return dateTimeType{kind: kindDateTime, precision: precision}
}
