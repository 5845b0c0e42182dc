// Package schema reflects model structs into table metadata and derives the
// validation schemas used by the admin list, detail and form screens.
//
// A model is a plain struct whose exported fields carry a db tag:
//
//	type User struct {
//		ID        int64     `db:"id,pk"`
//		Username  string    `db:"username,unique,size=50" validate:"max=50"`
//		IsActive  bool      `db:"is_active" default:"true"`
//		CreatedAt time.Time `db:"created_at,autonow"`
//	}
//
//	func (User) TableName() string { return "users" }
//
// Tag options: pk, unique, autonow, size=N and type=text|date|time|numeric|datetime.
// A field tagged db:"-" is skipped. Pointer and sql.Null* fields are nullable.
package schema

import (
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"
)

// ColumnType is the storage type of a column.
type ColumnType int

// Column types.
const (
	TypeUnknown ColumnType = iota
	TypeInteger
	TypeBigInteger
	TypeSmallInteger
	TypeFloat
	TypeNumeric
	TypeString
	TypeText
	TypeBoolean
	TypeDateTime
	TypeDate
	TypeTime
)

var columnTypeNames = map[ColumnType]string{
	TypeUnknown:      "unknown",
	TypeInteger:      "integer",
	TypeBigInteger:   "biginteger",
	TypeSmallInteger: "smallinteger",
	TypeFloat:        "float",
	TypeNumeric:      "numeric",
	TypeString:       "string",
	TypeText:         "text",
	TypeBoolean:      "boolean",
	TypeDateTime:     "datetime",
	TypeDate:         "date",
	TypeTime:         "time",
}

func (t ColumnType) String() string {
	if name, ok := columnTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// Errors returned by Inspect.
var (
	ErrNotStruct             = errors.New("model must be a struct")
	ErrNoPrimaryKey          = errors.New("model has no primary key")
	ErrUnsupportedPrimaryKey = errors.New("primary key must be an integer column")
)

// Column describes one mapped struct field.
type Column struct {
	Name       string
	FieldIndex []int
	GoType     reflect.Type
	Type       ColumnType
	Nullable   bool
	PrimaryKey bool
	Unique     bool
	AutoNow    bool
	Size       int
	Default    any
	Rules      string
}

// FieldType returns the schema value type for the column.
func (c Column) FieldType() FieldType {
	return FieldTypeOf(c.Type)
}

// Table is the reflected metadata of a model struct.
type Table struct {
	Name    string
	Model   string
	GoType  reflect.Type
	Columns []Column

	pk int
}

// PrimaryKey returns the primary key column name.
func (t *Table) PrimaryKey() string {
	return t.Columns[t.pk].Name
}

// PrimaryKeyColumn returns the primary key column.
func (t *Table) PrimaryKeyColumn() Column {
	return t.Columns[t.pk]
}

// ColumnNames returns every column name in declaration order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Column looks up a column by name.
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Tabler lets a model choose its table name.
type Tabler interface {
	TableName() string
}

var (
	tableCache sync.Map // reflect.Type -> *Table
	timeType   = reflect.TypeOf(time.Time{})
)

// Inspect reflects a model struct (or pointer to one) into table metadata.
// Results are cached per type.
func Inspect(model any) (*Table, error) {
	if model == nil {
		return nil, ErrNotStruct
	}
	rt := reflect.TypeOf(model)
	for rt.Kind() == reflect.Ptr {
		rt = rt.Elem()
	}
	if rt.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: got %s", ErrNotStruct, rt.Kind())
	}

	if cached, ok := tableCache.Load(rt); ok {
		return cached.(*Table), nil
	}

	t, err := inspectType(rt)
	if err != nil {
		return nil, err
	}
	actual, _ := tableCache.LoadOrStore(rt, t)
	return actual.(*Table), nil
}

// MustInspect is like Inspect but panics on error.
func MustInspect(model any) *Table {
	t, err := Inspect(model)
	if err != nil {
		panic(err)
	}
	return t
}

func inspectType(rt reflect.Type) (*Table, error) {
	t := &Table{
		Name:   tableName(rt),
		Model:  rt.Name(),
		GoType: rt,
		pk:     -1,
	}

	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		tag, ok := sf.Tag.Lookup("db")
		if !ok || tag == "-" {
			continue
		}

		col, err := parseColumn(sf, tag)
		if err != nil {
			return nil, fmt.Errorf("model %s field %s: %w", rt.Name(), sf.Name, err)
		}
		if col.PrimaryKey && t.pk < 0 {
			t.pk = len(t.Columns)
		}
		t.Columns = append(t.Columns, col)
	}

	if t.pk < 0 {
		return nil, fmt.Errorf("model %s: %w", rt.Name(), ErrNoPrimaryKey)
	}
	if FieldTypeOf(t.Columns[t.pk].Type) != FieldInt {
		return nil, fmt.Errorf("model %s: %w", rt.Name(), ErrUnsupportedPrimaryKey)
	}
	return t, nil
}

func parseColumn(sf reflect.StructField, tag string) (Column, error) {
	parts := strings.Split(tag, ",")
	col := Column{
		Name:       strings.TrimSpace(parts[0]),
		FieldIndex: sf.Index,
		GoType:     sf.Type,
		Rules:      sf.Tag.Get("validate"),
	}
	if col.Name == "" {
		col.Name = snakeCase(sf.Name)
	}

	col.Type, col.Nullable = columnTypeOf(sf.Type)

	for _, opt := range parts[1:] {
		opt = strings.TrimSpace(opt)
		key, value, _ := strings.Cut(opt, "=")
		switch key {
		case "pk":
			col.PrimaryKey = true
		case "unique":
			col.Unique = true
		case "autonow":
			col.AutoNow = true
		case "size":
			n, err := strconv.Atoi(value)
			if err != nil || n <= 0 {
				return col, fmt.Errorf("invalid size %q", value)
			}
			col.Size = n
		case "type":
			override, ok := typeOverrides[value]
			if !ok {
				return col, fmt.Errorf("unknown column type %q", value)
			}
			col.Type = override
		case "":
		default:
			return col, fmt.Errorf("unknown db tag option %q", key)
		}
	}

	// Primary keys are never nullable.
	if col.PrimaryKey {
		col.Nullable = false
	}

	if raw, ok := sf.Tag.Lookup("default"); ok {
		def, err := parseDefault(col.FieldType(), raw)
		if err != nil {
			return col, fmt.Errorf("invalid default %q: %w", raw, err)
		}
		col.Default = def
	}

	return col, nil
}

var typeOverrides = map[string]ColumnType{
	"text":     TypeText,
	"date":     TypeDate,
	"time":     TypeTime,
	"numeric":  TypeNumeric,
	"datetime": TypeDateTime,
	"string":   TypeString,
}

var nullTypes = map[reflect.Type]ColumnType{
	reflect.TypeOf(sql.NullString{}):  TypeString,
	reflect.TypeOf(sql.NullInt64{}):   TypeBigInteger,
	reflect.TypeOf(sql.NullInt32{}):   TypeInteger,
	reflect.TypeOf(sql.NullInt16{}):   TypeSmallInteger,
	reflect.TypeOf(sql.NullByte{}):    TypeSmallInteger,
	reflect.TypeOf(sql.NullFloat64{}): TypeFloat,
	reflect.TypeOf(sql.NullBool{}):    TypeBoolean,
	reflect.TypeOf(sql.NullTime{}):    TypeDateTime,
}

// columnTypeOf maps a Go field type to a column type and nullability.
func columnTypeOf(rt reflect.Type) (ColumnType, bool) {
	nullable := false
	for rt.Kind() == reflect.Ptr {
		nullable = true
		rt = rt.Elem()
	}
	if ct, ok := nullTypes[rt]; ok {
		return ct, true
	}
	if rt == timeType {
		return TypeDateTime, nullable
	}

	switch rt.Kind() {
	case reflect.Int, reflect.Int32, reflect.Uint, reflect.Uint32:
		return TypeInteger, nullable
	case reflect.Int64, reflect.Uint64:
		return TypeBigInteger, nullable
	case reflect.Int8, reflect.Int16, reflect.Uint8, reflect.Uint16:
		return TypeSmallInteger, nullable
	case reflect.Float32, reflect.Float64:
		return TypeFloat, nullable
	case reflect.String:
		return TypeString, nullable
	case reflect.Bool:
		return TypeBoolean, nullable
	default:
		return TypeUnknown, nullable
	}
}

func parseDefault(ft FieldType, raw string) (any, error) {
	switch ft {
	case FieldInt:
		return strconv.ParseInt(raw, 10, 64)
	case FieldFloat:
		return strconv.ParseFloat(raw, 64)
	case FieldDecimal:
		if _, err := strconv.ParseFloat(raw, 64); err != nil {
			return nil, err
		}
		return raw, nil
	case FieldBool:
		return strconv.ParseBool(raw)
	case FieldDateTime, FieldDate:
		return parseTime(raw)
	case FieldTime:
		return parseClock(raw)
	default:
		return raw, nil
	}
}

func tableName(rt reflect.Type) string {
	if tabler, ok := reflect.New(rt).Interface().(Tabler); ok {
		if name := tabler.TableName(); name != "" {
			return name
		}
	}
	return snakeCase(rt.Name())
}

// snakeCase converts an identifier like "AuditLog" or "HTTPStatus" to
// "audit_log" / "http_status".
func snakeCase(name string) string {
	runes := []rune(name)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
