package catalog

import (
	"strconv"
	"strings"

	"github.com/zoravur/pgmock/internal/pgerror"
)

// pgCatalog builds the pg_catalog schema's built-in types and functions:
// bool, integer/int4, text converters and the length function.
func pgCatalog() Schema {
	s := newSchema()

	s.Types["bool"] = PgType{Name: "bool", Convert: convertBool}
	s.Types["integer"] = PgType{Name: "integer", Convert: convertInt}
	s.Types["int4"] = PgType{Name: "int4", Convert: convertInt}
	s.Types["text"] = PgType{Name: "text", Convert: convertText}

	s.Functions["length"] = Function{Name: "length", Call: fnLength}

	return s
}

func convertBool(v Value) (Value, error) {
	switch v.Kind {
	case KindNull:
		return v, nil
	case KindBool:
		return v, nil
	case KindInt:
		return BoolValue(v.Int != 0), nil
	case KindText:
		s := strings.ToLower(strings.TrimSpace(v.Text))
		if s == "" {
			return Value{}, pgerror.InvalidTextRepresentation(`invalid input syntax for type boolean: '%s'`, v.Text)
		}
		if strings.HasPrefix("true", s) {
			return BoolValue(true), nil
		}
		if strings.HasPrefix("false", s) {
			return BoolValue(false), nil
		}
		return Value{}, pgerror.InvalidTextRepresentation(`invalid input syntax for type boolean: '%s'`, v.Text)
	}
	return Value{}, pgerror.InvalidTextRepresentation(`invalid input syntax for type boolean`)
}

func convertInt(v Value) (Value, error) {
	switch v.Kind {
	case KindNull:
		return v, nil
	case KindInt:
		return v, nil
	case KindBool:
		if v.Bool {
			return IntValue(1), nil
		}
		return IntValue(0), nil
	case KindText:
		i, err := strconv.ParseInt(strings.TrimSpace(v.Text), 10, 64)
		if err != nil {
			return Value{}, pgerror.InvalidTextRepresentation(`invalid input syntax for type integer: "%s"`, v.Text)
		}
		return IntValue(i), nil
	}
	return Value{}, pgerror.InvalidTextRepresentation(`invalid input syntax for type integer`)
}

func convertText(v Value) (Value, error) {
	switch v.Kind {
	case KindNull:
		return v, nil
	case KindText:
		return v, nil
	case KindBool:
		if v.Bool {
			return TextValue("true"), nil
		}
		return TextValue("false"), nil
	case KindInt:
		return TextValue(strconv.FormatInt(v.Int, 10)), nil
	}
	return Value{}, nil
}

func fnLength(args []Value) (Value, error) {
	if len(args) != 1 {
		return Value{}, pgerror.UndefinedFunction("length takes exactly one argument")
	}
	v := args[0]
	if v.IsNull() {
		return Null(), nil
	}
	if v.Kind != KindText {
		return Value{}, pgerror.UndefinedFunction("function length(%s) does not exist", v.Kind)
	}
	return IntValue(int64(len(v.Text))), nil
}
