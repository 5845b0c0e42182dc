package schema

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// FieldType is the value type a schema field accepts.
type FieldType string

// Field types.
const (
	FieldInt      FieldType = "int"
	FieldFloat    FieldType = "float"
	FieldDecimal  FieldType = "decimal"
	FieldString   FieldType = "str"
	FieldBool     FieldType = "bool"
	FieldDateTime FieldType = "datetime"
	FieldDate     FieldType = "date"
	FieldTime     FieldType = "time"
)

var fieldTypes = map[ColumnType]FieldType{
	TypeBigInteger:   FieldInt,
	TypeSmallInteger: FieldInt,
	TypeInteger:      FieldInt,
	TypeFloat:        FieldFloat,
	TypeNumeric:      FieldDecimal,
	TypeString:       FieldString,
	TypeText:         FieldString,
	TypeBoolean:      FieldBool,
	TypeDateTime:     FieldDateTime,
	TypeDate:         FieldDate,
	TypeTime:         FieldTime,
}

// FieldTypeOf maps a column type to its field type. Unknown column types
// are treated as strings.
func FieldTypeOf(ct ColumnType) FieldType {
	if ft, ok := fieldTypes[ct]; ok {
		return ft
	}
	return FieldString
}

// Record is one row keyed by column name.
type Record map[string]any

// PrimaryKey returns the record's primary key value as int64.
func (r Record) PrimaryKey(t *Table) (int64, bool) {
	v, ok := r[t.PrimaryKey()]
	if !ok || v == nil {
		return 0, false
	}
	n, err := toInt64(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	// time.Time.String() output carries a monotonic suffix some drivers keep.
	if i := strings.Index(s, " m="); i > 0 {
		s = s[:i]
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	if t, err := time.Parse("2006-01-02 15:04:05.999999999 -0700 MST", s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid datetime %q", s)
}

func parseClock(s string) (string, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04:05.999999999", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04:05"), nil
		}
	}
	return "", fmt.Errorf("invalid time %q", s)
}

var boolWords = map[string]bool{
	"true": true, "t": true, "1": true, "on": true, "yes": true, "y": true,
	"false": false, "f": false, "0": false, "off": false, "no": false, "n": false,
}

var scannerType = reflect.TypeOf((*sql.Scanner)(nil)).Elem()

// coerceHook converts loosely typed input (form strings, JSON numbers) into
// the target kinds mapstructure decodes into.
func coerceHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	switch {
	case from != to && reflect.PointerTo(to).Implements(scannerType):
		ptr := reflect.New(to)
		if err := ptr.Interface().(sql.Scanner).Scan(data); err != nil {
			return nil, err
		}
		return ptr.Elem().Interface(), nil
	case to == timeType:
		switch v := data.(type) {
		case string:
			return parseTime(v)
		case []byte:
			return parseTime(string(v))
		}
	case to.Kind() == reflect.Bool && from.Kind() == reflect.String:
		b, ok := boolWords[strings.ToLower(strings.TrimSpace(data.(string)))]
		if !ok {
			return nil, fmt.Errorf("invalid boolean %q", data)
		}
		return b, nil
	case isIntegerKind(to.Kind()):
		n, ok, err := integerValue(data)
		if err != nil {
			return nil, err
		}
		if !ok {
			return data, nil
		}
		if err := fitsKind(to, n); err != nil {
			return nil, err
		}
		return n, nil
	case from.Kind() == reflect.Slice && from.Elem().Kind() == reflect.Uint8 && to.Kind() != reflect.Slice:
		return string(data.([]byte)), nil
	case from.Kind() == reflect.String && to.Kind() == reflect.Float64:
		return strconv.ParseFloat(strings.TrimSpace(data.(string)), 64)
	}
	return data, nil
}

func decodeInto(input any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
		DecodeHook:       mapstructure.ComposeDecodeHookFunc(coerceHook),
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

var errNotInteger = errors.New("must be an integer")

// int64 bounds as float64. The upper bound is exclusive.
const (
	minInt64Float = float64(math.MinInt64)
	maxInt64Float = -float64(math.MinInt64)
)

func floatToInt64(f float64) (int64, error) {
	if f != math.Trunc(f) || f < minInt64Float || f >= maxInt64Float {
		return 0, errNotInteger
	}
	return int64(f), nil
}

func parseInt64(s string) (int64, error) {
	s = strings.TrimSpace(s)
	n, err := strconv.ParseInt(s, 10, 64)
	if err == nil {
		return n, nil
	}
	if errors.Is(err, strconv.ErrRange) {
		return 0, errNotInteger
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errNotInteger
	}
	return floatToInt64(f)
}

func isIntegerKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

// integerValue reads data as an int64. ok is false when data is not a
// number or string and should be left to the decoder.
func integerValue(data any) (n int64, ok bool, err error) {
	rv := reflect.ValueOf(data)
	switch rv.Kind() {
	case reflect.String:
		n, err = parseInt64(rv.String())
	case reflect.Slice:
		if rv.Type().Elem().Kind() != reflect.Uint8 {
			return 0, false, nil
		}
		n, err = parseInt64(string(rv.Bytes()))
	case reflect.Float32, reflect.Float64:
		n, err = floatToInt64(rv.Float())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n = rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, true, errNotInteger
		}
		n = int64(u)
	default:
		return 0, false, nil
	}
	return n, true, err
}

// fitsKind checks n against the bounds of an integer Go type. Pointers are
// followed; non-integer types always fit.
func fitsKind(t reflect.Type, n int64) error {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	v := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if v.OverflowInt(n) {
			return fmt.Errorf("out of range for %s", t.Kind())
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if n < 0 || v.OverflowUint(uint64(n)) {
			return fmt.Errorf("out of range for %s", t.Kind())
		}
	}
	return nil
}

func toInt64(v any) (int64, error) {
	var out int64
	if err := decodeInto(v, &out); err != nil {
		return 0, errNotInteger
	}
	return out, nil
}

// Coerce converts a loosely typed value into the canonical Go value for the
// field type: int64, float64, string (decimal, str and time), bool or time.Time.
func Coerce(ft FieldType, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}
	v = rv.Interface()
	if valuer, ok := v.(driver.Valuer); ok {
		dv, err := valuer.Value()
		if err != nil {
			return nil, err
		}
		return Coerce(ft, dv)
	}

	switch ft {
	case FieldInt:
		return toInt64(v)
	case FieldFloat:
		var out float64
		if err := decodeInto(v, &out); err != nil {
			return nil, fmt.Errorf("must be a number")
		}
		return out, nil
	case FieldDecimal:
		var out float64
		if err := decodeInto(v, &out); err != nil {
			return nil, fmt.Errorf("must be a decimal number")
		}
		if s, ok := v.(string); ok {
			return strings.TrimSpace(s), nil
		}
		return strconv.FormatFloat(out, 'f', -1, 64), nil
	case FieldBool:
		var out bool
		if err := decodeInto(v, &out); err != nil {
			return nil, fmt.Errorf("must be a boolean")
		}
		return out, nil
	case FieldDateTime:
		var out time.Time
		if err := decodeInto(v, &out); err != nil {
			return nil, fmt.Errorf("must be a datetime")
		}
		return out, nil
	case FieldDate:
		var out time.Time
		if err := decodeInto(v, &out); err != nil {
			return nil, fmt.Errorf("must be a date")
		}
		y, m, d := out.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	case FieldTime:
		switch t := v.(type) {
		case time.Time:
			return t.Format("15:04:05"), nil
		case []byte:
			return parseClock(string(t))
		case string:
			return parseClock(t)
		}
		return nil, fmt.Errorf("must be a time")
	default:
		switch s := v.(type) {
		case string:
			return s, nil
		case []byte:
			return string(s), nil
		case time.Time:
			return s.UTC().Format(time.RFC3339Nano), nil
		}
		return fmt.Sprint(v), nil
	}
}

// JSONValue renders a canonical value for JSON output.
func JSONValue(ft FieldType, v any) any {
	t, ok := v.(time.Time)
	if !ok {
		return v
	}
	if ft == FieldDate {
		return t.Format("2006-01-02")
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// Record converts a model struct into a record keyed by column name.
func (t *Table) Record(model any) (Record, error) {
	rv := reflect.ValueOf(model)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, fmt.Errorf("nil %s", t.Model)
		}
		rv = rv.Elem()
	}
	if rv.Type() != t.GoType {
		return nil, fmt.Errorf("expected %s, got %s", t.GoType, rv.Type())
	}

	rec := make(Record, len(t.Columns))
	for _, c := range t.Columns {
		fv := rv.FieldByIndex(c.FieldIndex)
		if fv.Kind() == reflect.Ptr && fv.IsNil() {
			rec[c.Name] = nil
			continue
		}
		v, err := Coerce(c.FieldType(), fv.Interface())
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", c.Name, err)
		}
		rec[c.Name] = v
	}
	return rec, nil
}

// Bind copies a record into a model struct pointer.
func (t *Table) Bind(rec Record, dst any) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Type() != t.GoType {
		return fmt.Errorf("bind: expected *%s", t.GoType)
	}

	input := make(map[string]any, len(rec))
	for _, c := range t.Columns {
		v, ok := rec[c.Name]
		if !ok || v == nil {
			continue
		}
		input[c.Name] = v
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "db",
		WeaklyTypedInput: true,
		Result:           dst,
		DecodeHook:       mapstructure.ComposeDecodeHookFunc(coerceHook),
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}
