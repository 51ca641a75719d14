package dialect

import (
	"errors"
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/roach88/plansql/internal/fragment"
	"github.com/roach88/plansql/internal/queryir"
)

// ErrMalformedCall marks a function call whose arguments do not fit the
// function: wrong arity, or arguments passed to a niladic function.
var ErrMalformedCall = errors.New("malformed function call")

// ErrUnsupportedAggregate marks an aggregate outside the canonical
// namespace.
var ErrUnsupportedAggregate = errors.New("unsupported aggregate")

// bitwiseOps map canonical bitwise functions to infix operators.
var bitwiseOps = map[string]string{
	"BitwiseAnd": "&",
	"BitwiseOr":  "|",
	"BitwiseXor": "^",
}

var dateFunctions = map[string]string{
	"CurrentDateTime":    "NOW()",
	"CurrentUtcDateTime": "UTC_TIMESTAMP()",
	"Year":               "YEAR({0})",
	"Month":              "MONTH({0})",
	"Day":                "DAY({0})",
	"Hour":               "HOUR({0})",
	"Minute":             "MINUTE({0})",
	"Second":             "SECOND({0})",
	"DayOfYear":          "DAYOFYEAR({0})",
	"TruncateTime":       "DATE({0})",
	"AddYears":           "DATE_ADD({0}, INTERVAL {1} YEAR)",
	"AddMonths":          "DATE_ADD({0}, INTERVAL {1} MONTH)",
	"AddDays":            "DATE_ADD({0}, INTERVAL {1} DAY)",
	"AddHours":           "DATE_ADD({0}, INTERVAL {1} HOUR)",
	"AddMinutes":         "DATE_ADD({0}, INTERVAL {1} MINUTE)",
	"AddSeconds":         "DATE_ADD({0}, INTERVAL {1} SECOND)",
	"DiffDays":           "DATEDIFF({1}, {0})",
	"DiffHours":          "TIMESTAMPDIFF(HOUR, {0}, {1})",
	"DiffMinutes":        "TIMESTAMPDIFF(MINUTE, {0}, {1})",
	"DiffSeconds":        "TIMESTAMPDIFF(SECOND, {0}, {1})",
	"DiffMonths":         "TIMESTAMPDIFF(MONTH, {0}, {1})",
	"DiffYears":          "TIMESTAMPDIFF(YEAR, {0}, {1})",
}

// stringFunctions holds the string and math templates.
var stringFunctions = map[string]string{
	"Concat":     "CONCAT({0}, {1})",
	"IndexOf":    "LOCATE({0}, {1})",
	"Left":       "LEFT({0}, {1})",
	"Length":     "CHAR_LENGTH({0})",
	"LTrim":      "LTRIM({0})",
	"Replace":    "REPLACE({0}, {1}, {2})",
	"Reverse":    "REVERSE({0})",
	"Right":      "RIGHT({0}, {1})",
	"RTrim":      "RTRIM({0})",
	"Substring":  "SUBSTR({0}, {1}, {2})",
	"ToLower":    "LOWER({0})",
	"ToUpper":    "UPPER({0})",
	"Trim":       "TRIM({0})",
	"Contains":   "(LOCATE({1}, {0}) > 0)",
	"StartsWith": "(LOCATE({1}, {0}) = 1)",
	"EndsWith":   "(RIGHT({0}, CHAR_LENGTH({1})) = {1})",

	"Abs":      "ABS({0})",
	"Ceiling":  "CEILING({0})",
	"Floor":    "FLOOR({0})",
	"Power":    "POW({0}, {1})",
	"Truncate": "TRUNCATE({0}, {1})",
}

var spatialFunctions = map[string]string{
	"SpatialDimension":    "ST_Dimension({0})",
	"SpatialEnvelope":     "ST_Envelope({0})",
	"IsSimpleGeometry":    "ST_IsSimple({0})",
	"SpatialTypeName":     "ST_GeometryType({0})",
	"CoordinateSystemId":  "ST_SRID({0})",
	"GeometryPoint":       "POINT({0}, {1})",
	"XCoordinate":         "ST_X({0})",
	"YCoordinate":         "ST_Y({0})",
	"GeometryFromText":    "ST_GeomFromText({0})",
	"SpatialContains":     "MBRContains({0}, {1})",
	"AsText":              "ST_AsText({0})",
	"SpatialBuffer":       "ST_Buffer({0}, {1})",
	"SpatialDifference":   "ST_Difference({0}, {1})",
	"SpatialIntersection": "ST_Intersection({0}, {1})",
	"Distance":            "ST_Distance({0}, {1})",
}

var functionTables = []map[string]string{dateFunctions, stringFunctions, spatialFunctions}

// RenderFunction translates a call of fn. Canonical functions found in a
// mapping table render through their template; everything else takes the
// user-defined function path.
func RenderFunction(fn *queryir.Function, args []fragment.Fragment) (fragment.Fragment, error) {
	if fn.IsCanonical() || fn.Namespace == "" {
		f, ok, err := Canonical(fn.Name, args)
		if err != nil || ok {
			return f, err
		}
	}
	return UserFunction(fn, args)
}

// Canonical renders a canonical function call. ok is false when name is in
// none of the mapping tables.
func Canonical(name string, args []fragment.Fragment) (fragment.Fragment, bool, error) {
	if op, found := bitwiseOps[name]; found {
		if len(args) != 2 {
			return nil, true, arityError(name, 2, len(args))
		}
		return &fragment.Binary{
			Left: args[0], Op: op, Right: args[1],
			WrapLeft: !atomic(args[0]), WrapRight: !atomic(args[1]),
		}, true, nil
	}
	if name == "BitwiseNot" {
		if len(args) != 1 {
			return nil, true, arityError(name, 1, len(args))
		}
		return &fragment.Template{Format: "~({0})", Args: args}, true, nil
	}
	if name == "Round" {
		f, err := round(args)
		return f, true, err
	}
	for _, table := range functionTables {
		tpl, found := table[name]
		if !found {
			continue
		}
		if want := fragment.Arity(tpl); want != len(args) {
			return nil, true, arityError(name, want, len(args))
		}
		return &fragment.Template{Format: tpl, Args: args}, true, nil
	}
	return nil, false, nil
}

// round renders ROUND(x, scale); scale defaults to 0 so that Round(x) and
// Round(x, 0) produce the same text.
func round(args []fragment.Fragment) (fragment.Fragment, error) {
	switch len(args) {
	case 1:
		return &fragment.Function{Name: "ROUND", Args: []fragment.Fragment{args[0], fragment.NewLiteral("0")}}, nil
	case 2:
		return &fragment.Function{Name: "ROUND", Args: []fragment.Fragment{args[0], args[1]}}, nil
	}
	return nil, fmt.Errorf("%w: Round takes 1 or 2 arguments, got %d", ErrMalformedCall, len(args))
}

// UserFunction renders a catalog function: the store name when the
// descriptor carries one, quoted unless the function is built in, and
// without parentheses when niladic.
func UserFunction(fn *queryir.Function, args []fragment.Fragment) (fragment.Fragment, error) {
	if fn.Niladic && len(args) > 0 {
		return nil, fmt.Errorf("%w: niladic function %s called with %d arguments", ErrMalformedCall, fn.FullName(), len(args))
	}
	name := fn.StoreName
	if name == "" {
		name = fn.Name
	}
	return &fragment.Function{
		Name:    name,
		Quoted:  !fn.BuiltIn,
		Niladic: fn.Niladic,
		Args:    args,
	}, nil
}

var upper = cases.Upper(language.Und)

// AggregateName returns the SQL name of a canonical aggregate: BigCount
// becomes COUNT, every other name is upper-cased.
func AggregateName(fn *queryir.Function) (string, error) {
	if !fn.IsCanonical() {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedAggregate, fn.FullName())
	}
	if fn.Name == "BigCount" {
		return "COUNT", nil
	}
	return upper.String(fn.Name), nil
}

func arityError(name string, want, got int) error {
	return fmt.Errorf("%w: %s takes %d arguments, got %d", ErrMalformedCall, name, want, got)
}

// atomic reports whether f renders as a single token that needs no
// parentheses as an operand.
func atomic(f fragment.Fragment) bool {
	switch v := f.(type) {
	case *fragment.Literal:
		return true
	case *fragment.Column:
		return v.Literal == nil
	}
	return false
}
