package schema

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	ID       int64      `db:"id,pk"`
	Email    string     `db:"email" validate:"email"`
	Age      int        `db:"age" validate:"gte=0,lte=150"`
	Score    float64    `db:"score" default:"0"`
	Active   bool       `db:"active" default:"true"`
	Bio      *string    `db:"bio,type=text"`
	Birthday *time.Time `db:"birthday,type=date"`
	Joined   time.Time  `db:"joined,autonow"`
}

func TestDerive(t *testing.T) {
	tbl := MustInspect(signup{})

	tests := []struct {
		name   string
		opts   DeriveOptions
		fields []string
	}{
		{
			name:   "all columns",
			opts:   DeriveOptions{},
			fields: []string{"id", "email", "age", "score", "active", "bio", "birthday", "joined"},
		},
		{
			name:   "form drops primary key",
			opts:   DeriveOptions{ForForm: true},
			fields: []string{"email", "age", "score", "active", "bio", "birthday", "joined"},
		},
		{
			name:   "include keeps column order",
			opts:   DeriveOptions{Include: []string{"age", "id", "email"}},
			fields: []string{"id", "email", "age"},
		},
		{
			name:   "exclude",
			opts:   DeriveOptions{Exclude: []string{"bio", "joined"}},
			fields: []string{"id", "email", "age", "score", "active", "birthday"},
		},
		{
			name:   "include and exclude",
			opts:   DeriveOptions{Include: []string{"id", "email", "age"}, Exclude: []string{"age"}, ForForm: true},
			fields: []string{"email"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Derive(tbl, tt.opts)
			assert.Equal(t, "signupSchema", s.Name)
			assert.Equal(t, tt.fields, s.FieldNames())
		})
	}
}

func TestDerive_FieldShape(t *testing.T) {
	s := Derive(MustInspect(signup{}), DeriveOptions{})

	email, ok := s.Field("email")
	require.True(t, ok)
	assert.True(t, email.Required)
	assert.Equal(t, FieldString, email.Type)
	assert.Equal(t, "Email", email.Title)

	score, _ := s.Field("score")
	assert.False(t, score.Required)
	assert.Equal(t, 0.0, score.Default)

	bio, _ := s.Field("bio")
	assert.False(t, bio.Required)
	assert.True(t, bio.Nullable)
	assert.Nil(t, bio.Default)

	// autonow is not a scalar default
	joined, _ := s.Field("joined")
	assert.True(t, joined.Required)
	assert.Nil(t, joined.Default)

	_, ok = s.Field("missing")
	assert.False(t, ok)
}

func TestSchema_Validate(t *testing.T) {
	s := Derive(MustInspect(signup{}), DeriveOptions{ForForm: true, Exclude: []string{"joined"}})

	t.Run("form strings are coerced", func(t *testing.T) {
		rec, err := s.Validate(map[string]any{
			"email":    "ann@example.com",
			"age":      "42",
			"score":    "3.5",
			"active":   "on",
			"bio":      "",
			"birthday": "1990-04-02",
			"unknown":  "ignored",
		})
		require.NoError(t, err)
		assert.Equal(t, "ann@example.com", rec["email"])
		assert.Equal(t, int64(42), rec["age"])
		assert.Equal(t, 3.5, rec["score"])
		assert.Equal(t, true, rec["active"])
		assert.Equal(t, "", rec["bio"])
		assert.Equal(t, time.Date(1990, 4, 2, 0, 0, 0, 0, time.UTC), rec["birthday"])
		assert.NotContains(t, rec, "unknown")
	})

	t.Run("json values and defaults", func(t *testing.T) {
		rec, err := s.Validate(map[string]any{
			"email":    "bob@example.com",
			"age":      float64(30),
			"birthday": nil,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(30), rec["age"])
		assert.Equal(t, 0.0, rec["score"])
		assert.Equal(t, true, rec["active"])
		assert.Nil(t, rec["bio"])
		assert.Nil(t, rec["birthday"])
	})

	t.Run("empty string for optional non-string field", func(t *testing.T) {
		rec, err := s.Validate(map[string]any{
			"email":    "c@example.com",
			"age":      "1",
			"score":    "",
			"birthday": "",
		})
		require.NoError(t, err)
		assert.Equal(t, 0.0, rec["score"])
		assert.Nil(t, rec["birthday"])
	})

	t.Run("every failing field is reported", func(t *testing.T) {
		_, err := s.Validate(map[string]any{
			"email":  "not-an-email",
			"age":    "4.5",
			"active": nil,
		})
		require.Error(t, err)

		var verr *ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, "signupSchema", verr.Schema)

		byField := map[string]string{}
		for _, fe := range verr.Errors {
			byField[fe.Field] = fe.Message
		}
		assert.Equal(t, "failed email rule", byField["email"])
		assert.Equal(t, "must be an integer", byField["age"])
		assert.Equal(t, "must not be null", byField["active"])
		assert.Contains(t, err.Error(), "3 validation error(s) for signupSchema")
	})

	t.Run("missing required field", func(t *testing.T) {
		_, err := s.Validate(map[string]any{"email": "d@example.com"})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		require.Len(t, verr.Errors, 1)
		assert.Equal(t, FieldError{Field: "age", Message: "field required"}, verr.Errors[0])
	})

	t.Run("rule with parameter", func(t *testing.T) {
		_, err := s.Validate(map[string]any{"email": "e@example.com", "age": 200})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "failed lte=150 rule", verr.Errors[0].Message)
	})

	t.Run("bad boolean", func(t *testing.T) {
		_, err := s.Validate(map[string]any{"email": "f@example.com", "age": 1, "active": "maybe"})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "must be a boolean", verr.Errors[0].Message)
	})

	t.Run("integers beyond int64 are rejected", func(t *testing.T) {
		for _, in := range []any{"99999999999999999999", "1e20", float64(1e20), uint64(1 << 63)} {
			_, err := s.Validate(map[string]any{"email": "g@example.com", "age": in})
			var verr *ValidationError
			require.ErrorAs(t, err, &verr, "input %v", in)
			assert.Equal(t, FieldError{Field: "age", Message: "must be an integer"}, verr.Errors[0], "input %v", in)
		}
	})

	t.Run("string field rejects numbers", func(t *testing.T) {
		_, err := s.Validate(map[string]any{"email": 12, "age": 1})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "must be a string", verr.Errors[0].Message)
	})
}

func TestSchema_ValidateDateTimeLocal(t *testing.T) {
	s := Derive(MustInspect(signup{}), DeriveOptions{Include: []string{"joined"}})
	rec, err := s.Validate(map[string]any{"joined": "2024-01-02T03:04"})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 0, 0, time.UTC), rec["joined"])
}

func TestSchema_Dump(t *testing.T) {
	s := Derive(MustInspect(signup{}), DeriveOptions{Exclude: []string{"bio"}})
	out := s.Dump(Record{
		"id":       int64(1),
		"email":    "ann@example.com",
		"age":      int64(42),
		"score":    1.5,
		"active":   true,
		"bio":      "hidden",
		"birthday": time.Date(1990, 4, 2, 0, 0, 0, 0, time.UTC),
		"joined":   time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	})

	assert.Equal(t, map[string]any{
		"id":       int64(1),
		"email":    "ann@example.com",
		"age":      int64(42),
		"score":    1.5,
		"active":   true,
		"birthday": "1990-04-02",
		"joined":   "2024-01-02T03:04:05Z",
	}, out)
}

func TestCoerce(t *testing.T) {
	tests := []struct {
		name    string
		ft      FieldType
		in      any
		want    any
		wantErr bool
	}{
		{"int from string", FieldInt, "17", int64(17), false},
		{"int ignores octal prefix", FieldInt, "010", int64(10), false},
		{"int from integral float", FieldInt, 3.0, int64(3), false},
		{"int rejects fraction", FieldInt, 3.2, nil, true},
		{"int rejects text", FieldInt, "abc", nil, true},
		{"float from string", FieldFloat, "2.25", 2.25, false},
		{"decimal keeps text", FieldDecimal, " 19.90 ", "19.90", false},
		{"decimal from float", FieldDecimal, 1.5, "1.5", false},
		{"decimal rejects text", FieldDecimal, "cheap", nil, true},
		{"bool from int", FieldBool, int64(0), false, false},
		{"bool from yes", FieldBool, "Yes", true, false},
		{"time from clock", FieldTime, "14:30", "14:30:00", false},
		{"time rejects junk", FieldTime, "noon", nil, true},
		{"string from bytes", FieldString, []byte("hi"), "hi", false},
		{"nil stays nil", FieldInt, nil, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Coerce(tt.ft, tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Audit Logs":   "audit-logs",
		"My View!":     "my-view",
		"  Settings  ": "settings",
		"users":        "users",
		"Q&A -- Board": "q-a-board",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "Is Active", Title("is_active"))
	assert.Equal(t, "Users", Title("users"))
	assert.Equal(t, "Created At", Title("created_at"))
}

type gauge struct {
	ID    int64   `db:"id,pk"`
	Level int8    `db:"level"`
	Spare *uint16 `db:"spare"`
}

func TestSchema_ValidateIntegerWidth(t *testing.T) {
	s := Derive(MustInspect(gauge{}), DeriveOptions{ForForm: true})

	tests := []struct {
		name  string
		input map[string]any
		field string
		msg   string
	}{
		{"int8 overflow", map[string]any{"level": "300"}, "level", "out of range for int8"},
		{"int8 underflow", map[string]any{"level": float64(-129)}, "level", "out of range for int8"},
		{"negative unsigned", map[string]any{"level": 1, "spare": "-1"}, "spare", "out of range for uint16"},
		{"unsigned overflow", map[string]any{"level": 1, "spare": 70000}, "spare", "out of range for uint16"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Validate(tt.input)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			require.Len(t, verr.Errors, 1)
			assert.Equal(t, FieldError{Field: tt.field, Message: tt.msg}, verr.Errors[0])
		})
	}

	rec, err := s.Validate(map[string]any{"level": "-128", "spare": "65535"})
	require.NoError(t, err)
	assert.Equal(t, int64(-128), rec["level"])
	assert.Equal(t, int64(65535), rec["spare"])
}

func TestCoerce_Int(t *testing.T) {
	for _, in := range []any{"9223372036854775807", int64(9223372036854775807), " 42 ", float64(42), "42.0", uint32(42)} {
		_, err := Coerce(FieldInt, in)
		assert.NoError(t, err, "input %v", in)
	}
	for _, in := range []any{"9223372036854775808", "-1e19", float64(9223372036854775808), "abc", "4.5"} {
		_, err := Coerce(FieldInt, in)
		assert.EqualError(t, err, "must be an integer", "input %v", in)
	}
}

func TestTableTitle(t *testing.T) {
	assert.Equal(t, "Users", TableTitle("users"))
	assert.Equal(t, "Audit_Logs", TableTitle("audit_logs"))
	assert.Equal(t, "Order_Items", TableTitle("ORDER_ITEMS"))
}
