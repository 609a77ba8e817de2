package store

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/roach88/shopq/internal/querysql"
	"github.com/roach88/shopq/internal/schema"
)

// Layouts tried, in order, when a date arrives as text.
var dateLayouts = []string{
	schema.DateLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
}

// decode converts a raw driver value into the Go type for kind:
//
//	Int      int64
//	Float    float64
//	Text     string
//	Money    decimal.Decimal (from minor units, 2 places)
//	Date     time.Time (UTC midnight)
//	Bool     bool
//	JSON     map[string]any
//	TextList []string
//
// NULL decodes to nil for every kind.
func decode(dialect querysql.Dialect, kind schema.Kind, raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}

	switch kind {
	case schema.KindInt:
		return decodeInt(raw)
	case schema.KindFloat:
		return decodeFloat(raw)
	case schema.KindText:
		return decodeText(raw)
	case schema.KindMoney:
		return decodeMoney(raw)
	case schema.KindDate:
		return decodeDate(raw)
	case schema.KindBool:
		return decodeBool(raw)
	case schema.KindJSON:
		return decodeJSON(raw)
	case schema.KindTextList:
		return decodeTextList(dialect, raw)
	default:
		return nil, fmt.Errorf("unknown kind %s", kind)
	}
}

func decodeInt(raw any) (int64, error) {
	switch v := raw.(type) {
	case int64:
		return v, nil
	case int32:
		return int64(v), nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case []byte:
		return parseInt(string(v))
	case string:
		return parseInt(v)
	default:
		return 0, fmt.Errorf("cannot decode %T as int", raw)
	}
}

// parseInt accepts "12" as well as the "12.0000" NUMERIC rendering some
// engines use for SUM.
func parseInt(s string) (int64, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse int %q: %w", s, err)
	}
	return d.IntPart(), nil
}

func decodeFloat(raw any) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case []byte:
		return strconv.ParseFloat(string(v), 64)
	case string:
		return strconv.ParseFloat(v, 64)
	default:
		return 0, fmt.Errorf("cannot decode %T as float", raw)
	}
}

func decodeText(raw any) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", fmt.Errorf("cannot decode %T as text", raw)
	}
}

// decodeMoney turns minor units into an amount. Averages arrive as
// fractional minor units and are rounded to the money scale.
func decodeMoney(raw any) (decimal.Decimal, error) {
	var cents decimal.Decimal
	switch v := raw.(type) {
	case int64:
		return decimal.New(v, -schema.MoneyScale), nil
	case float64:
		cents = decimal.NewFromFloat(v)
	case []byte:
		d, err := decimal.NewFromString(string(v))
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("parse money %q: %w", v, err)
		}
		cents = d
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("parse money %q: %w", v, err)
		}
		cents = d
	default:
		return decimal.Decimal{}, fmt.Errorf("cannot decode %T as money", raw)
	}
	return cents.Shift(-schema.MoneyScale).Round(schema.MoneyScale), nil
}

func decodeDate(raw any) (time.Time, error) {
	var s string
	switch v := raw.(type) {
	case time.Time:
		return dateOnly(v), nil
	case []byte:
		s = string(v)
	case string:
		s = v
	default:
		return time.Time{}, fmt.Errorf("cannot decode %T as date", raw)
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return dateOnly(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("parse date %q", s)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func decodeBool(raw any) (bool, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case int64:
		return v != 0, nil
	case []byte:
		return strconv.ParseBool(string(v))
	case string:
		return strconv.ParseBool(v)
	default:
		return false, fmt.Errorf("cannot decode %T as bool", raw)
	}
}

func decodeJSON(raw any) (map[string]any, error) {
	var b []byte
	switch v := raw.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return nil, fmt.Errorf("cannot decode %T as json", raw)
	}

	out := map[string]any{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	return out, nil
}

func decodeTextList(dialect querysql.Dialect, raw any) ([]string, error) {
	if dialect == querysql.Postgres {
		var arr pq.StringArray
		if err := arr.Scan(raw); err != nil {
			return nil, fmt.Errorf("parse text array: %w", err)
		}
		return []string(arr), nil
	}

	var b []byte
	switch v := raw.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return nil, fmt.Errorf("cannot decode %T as keyword list", raw)
	}

	out := []string{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("parse keyword list: %w", err)
	}
	return out, nil
}
