// Package dialect holds the MySQL mapping tables: literal syntax and
// parameter types for canonical scalar types, operator and join tokens,
// and canonical-function templates.
//
// Every table is built once at package initialisation and only read
// afterwards, so the package is safe for concurrent use by any number of
// generators.
package dialect

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/roach88/plansql/internal/queryir"
)

// DbType is the MySQL parameter type a bound value is sent as.
type DbType string

const (
	DbBlob      DbType = "Blob"
	DbBit       DbType = "Bit"
	DbUByte     DbType = "UByte"
	DbByte      DbType = "Byte"
	DbInt16     DbType = "Int16"
	DbInt32     DbType = "Int32"
	DbInt64     DbType = "Int64"
	DbDecimal   DbType = "Decimal"
	DbDouble    DbType = "Double"
	DbFloat     DbType = "Float"
	DbDateTime  DbType = "DateTime"
	DbTimestamp DbType = "Timestamp"
	DbTime      DbType = "Time"
	DbGuid      DbType = "Guid"
	DbVarChar   DbType = "VarChar"
	DbGeometry  DbType = "Geometry"
)

var dbTypes = map[queryir.TypeKind]DbType{
	queryir.TypeBinary:         DbBlob,
	queryir.TypeBoolean:        DbBit,
	queryir.TypeByte:           DbUByte,
	queryir.TypeSByte:          DbByte,
	queryir.TypeInt16:          DbInt16,
	queryir.TypeInt32:          DbInt32,
	queryir.TypeInt64:          DbInt64,
	queryir.TypeDecimal:        DbDecimal,
	queryir.TypeDouble:         DbDouble,
	queryir.TypeSingle:         DbFloat,
	queryir.TypeDateTime:       DbDateTime,
	queryir.TypeDateTimeOffset: DbTimestamp,
	queryir.TypeTime:           DbTime,
	queryir.TypeGuid:           DbGuid,
	queryir.TypeString:         DbVarChar,
	queryir.TypeGeometry:       DbGeometry,
}

// ParameterType maps a canonical type to the parameter type used when a
// value of that type is bound. Unknown kinds bind as VarChar.
func ParameterType(kind queryir.TypeKind) DbType {
	if t, ok := dbTypes[kind]; ok {
		return t
	}
	return DbVarChar
}

// Literal renders a constant as MySQL literal text when its kind has a
// round-trip-safe, locale-independent textual form: integers, finite
// floating-point numbers, decimals and booleans. ok is false when the value
// must be bound as a parameter instead.
func Literal(kind queryir.TypeKind, value any) (text string, ok bool, err error) {
	switch kind {
	case queryir.TypeBoolean:
		b, isBool := value.(bool)
		if !isBool {
			return "", false, fmt.Errorf("boolean constant holds %T", value)
		}
		if b {
			return "1", true, nil
		}
		return "0", true, nil

	case queryir.TypeByte, queryir.TypeSByte, queryir.TypeInt16, queryir.TypeInt32, queryir.TypeInt64:
		switch v := value.(type) {
		case uint8:
			return strconv.FormatUint(uint64(v), 10), true, nil
		case uint16:
			return strconv.FormatUint(uint64(v), 10), true, nil
		case uint32:
			return strconv.FormatUint(uint64(v), 10), true, nil
		case uint64:
			return strconv.FormatUint(v, 10), true, nil
		case uint:
			return strconv.FormatUint(uint64(v), 10), true, nil
		}
		i, err := toInt64(value)
		if err != nil {
			return "", false, err
		}
		return strconv.FormatInt(i, 10), true, nil

	case queryir.TypeDouble:
		f, err := toFloat64(value)
		if err != nil {
			return "", false, err
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return "", false, nil
		}
		return strconv.FormatFloat(f, 'g', -1, 64), true, nil

	case queryir.TypeSingle:
		var f float64
		if f32, isF32 := value.(float32); isF32 {
			f = float64(f32)
		} else {
			var err error
			if f, err = toFloat64(value); err != nil {
				return "", false, err
			}
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return "", false, nil
		}
		return strconv.FormatFloat(f, 'g', -1, 32), true, nil

	case queryir.TypeDecimal:
		d, err := toDecimal(value)
		if err != nil {
			return "", false, err
		}
		return d.String(), true, nil
	}
	return "", false, nil
}

func toInt64(value any) (int64, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	}
	return 0, fmt.Errorf("integer constant holds %T", value)
}

func toFloat64(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	}
	return 0, fmt.Errorf("floating-point constant holds %T", value)
}

func toDecimal(value any) (decimal.Decimal, error) {
	switch v := value.(type) {
	case decimal.Decimal:
		return v, nil
	case *decimal.Decimal:
		return *v, nil
	case string:
		return decimal.NewFromString(v)
	case int64:
		return decimal.NewFromInt(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case float64:
		return decimal.NewFromFloat(v), nil
	}
	return decimal.Decimal{}, fmt.Errorf("decimal constant holds %T", value)
}

// minTimestamp is the earliest value a MySQL TIMESTAMP column holds.
var minTimestamp = time.Date(1970, 1, 1, 0, 0, 1, 0, time.UTC)

// NormalizeValue converts a constant's value into the form sent to the
// server. Offset date-times lose their offset and keep their wall-clock
// time, clamped to the TIMESTAMP range; GUIDs are sent in canonical text
// form. Other values pass through.
func NormalizeValue(kind queryir.TypeKind, value any) (any, error) {
	switch kind {
	case queryir.TypeDateTimeOffset:
		t, ok := value.(time.Time)
		if !ok {
			return nil, fmt.Errorf("datetimeoffset constant holds %T", value)
		}
		wall := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
		if wall.Before(minTimestamp) {
			wall = minTimestamp
		}
		return wall, nil

	case queryir.TypeGuid:
		switch v := value.(type) {
		case uuid.UUID:
			return v.String(), nil
		case [16]byte:
			return uuid.UUID(v).String(), nil
		case string:
			id, err := uuid.Parse(v)
			if err != nil {
				return nil, fmt.Errorf("guid constant: %w", err)
			}
			return id.String(), nil
		}
		return nil, fmt.Errorf("guid constant holds %T", value)

	case queryir.TypeDecimal:
		d, err := toDecimal(value)
		if err != nil {
			return nil, err
		}
		return d.String(), nil
	}
	return value, nil
}
