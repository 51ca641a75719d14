package dialect

import (
	"errors"
	"math"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/plansql/internal/fragment"
	"github.com/roach88/plansql/internal/queryir"
)

func TestLiteral_IntegersRoundTrip(t *testing.T) {
	values := []struct {
		kind  queryir.TypeKind
		value any
	}{
		{queryir.TypeByte, uint8(255)},
		{queryir.TypeSByte, int8(-128)},
		{queryir.TypeInt16, int16(math.MinInt16)},
		{queryir.TypeInt32, int32(math.MaxInt32)},
		{queryir.TypeInt64, int64(math.MinInt64)},
		{queryir.TypeInt64, int64(math.MaxInt64)},
	}
	for _, v := range values {
		text, ok, err := Literal(v.kind, v.value)
		require.NoError(t, err)
		require.True(t, ok)

		parsed, err := strconv.ParseInt(text, 10, 64)
		if v.kind == queryir.TypeByte {
			u, uerr := strconv.ParseUint(text, 10, 8)
			require.NoError(t, uerr)
			assert.Equal(t, v.value, uint8(u))
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, toI64(t, v.value), parsed)
	}
}

func toI64(t *testing.T, v any) int64 {
	i, err := toInt64(v)
	require.NoError(t, err)
	return i
}

func TestLiteral_FloatsRoundTrip(t *testing.T) {
	doubles := []float64{0.1, 1.0 / 3.0, math.MaxFloat64, math.SmallestNonzeroFloat64, -2.5e-300, 100, 123456789012345678}
	for _, d := range doubles {
		text, ok, err := Literal(queryir.TypeDouble, d)
		require.NoError(t, err)
		require.True(t, ok)
		back, err := strconv.ParseFloat(text, 64)
		require.NoError(t, err)
		assert.Equal(t, d, back, "double %v rendered as %s", d, text)
	}

	singles := []float32{0.1, 1.0 / 3.0, math.MaxFloat32, 16777217}
	for _, s := range singles {
		text, ok, err := Literal(queryir.TypeSingle, s)
		require.NoError(t, err)
		require.True(t, ok)
		back, err := strconv.ParseFloat(text, 32)
		require.NoError(t, err)
		assert.Equal(t, s, float32(back), "single %v rendered as %s", s, text)
	}
}

func TestLiteral_NonFiniteFloatsAreParameters(t *testing.T) {
	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, ok, err := Literal(queryir.TypeDouble, f)
		require.NoError(t, err)
		assert.False(t, ok)
	}
}

func TestLiteral_DecimalKeepsScale(t *testing.T) {
	d := decimal.RequireFromString("79228162514264337593543950335.5")
	text, ok, err := Literal(queryir.TypeDecimal, d)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "79228162514264337593543950335.5", text)

	back, err := decimal.NewFromString(text)
	require.NoError(t, err)
	assert.True(t, d.Equal(back))
}

func TestLiteral_Boolean(t *testing.T) {
	text, ok, err := Literal(queryir.TypeBoolean, true)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1", text)

	text, _, _ = Literal(queryir.TypeBoolean, false)
	assert.Equal(t, "0", text)
}

func TestLiteral_NonNumericKindsAreParameters(t *testing.T) {
	kinds := map[queryir.TypeKind]any{
		queryir.TypeString:   "x' OR '1'='1",
		queryir.TypeDateTime: time.Now(),
		queryir.TypeGuid:     uuid.New(),
		queryir.TypeBinary:   []byte{1},
		queryir.TypeTime:     "10:00:00",
	}
	for kind, v := range kinds {
		_, ok, err := Literal(kind, v)
		require.NoError(t, err)
		assert.False(t, ok, "%s must be parameterized", kind)
	}
}

func TestNormalizeValue(t *testing.T) {
	zone := time.FixedZone("UTC+2", 2*3600)
	got, err := NormalizeValue(queryir.TypeDateTimeOffset, time.Date(2024, 5, 1, 10, 30, 0, 0, zone))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC), got, "offset is dropped, wall clock kept")

	got, err = NormalizeValue(queryir.TypeDateTimeOffset, time.Date(1960, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, time.Date(1970, 1, 1, 0, 0, 1, 0, time.UTC), got)

	got, err = NormalizeValue(queryir.TypeGuid, "6F9619FF-8B86-D011-B42D-00C04FC964FF")
	require.NoError(t, err)
	assert.Equal(t, "6f9619ff-8b86-d011-b42d-00c04fc964ff", got)

	got, err = NormalizeValue(queryir.TypeString, "as is")
	require.NoError(t, err)
	assert.Equal(t, "as is", got)
}

func TestParameterType(t *testing.T) {
	assert.Equal(t, DbVarChar, ParameterType(queryir.TypeString))
	assert.Equal(t, DbTimestamp, ParameterType(queryir.TypeDateTimeOffset))
	assert.Equal(t, DbVarChar, ParameterType(queryir.TypeUnknown))
}

func TestJoinToken(t *testing.T) {
	tok, ok := JoinToken(queryir.JoinLeftOuter)
	assert.True(t, ok)
	assert.Equal(t, "LEFT OUTER JOIN", tok)

	_, ok = JoinToken(queryir.JoinFullOuter)
	assert.False(t, ok)
}

func colArg(name string) fragment.Fragment {
	return &fragment.Column{Table: "Extent1", Name: name}
}

func canonical(name string) *queryir.Function {
	return &queryir.Function{Namespace: queryir.CanonicalNamespace, Name: name}
}

func TestRenderFunction_Templates(t *testing.T) {
	tests := []struct {
		name string
		args []fragment.Fragment
		want string
	}{
		{"CurrentDateTime", nil, "NOW()"},
		{"Year", []fragment.Fragment{colArg("at")}, "YEAR(`Extent1`.`at`)"},
		{"IndexOf", []fragment.Fragment{fragment.NewLiteral("@gp1"), colArg("name")}, "LOCATE(@gp1, `Extent1`.`name`)"},
		{"Length", []fragment.Fragment{colArg("name")}, "CHAR_LENGTH(`Extent1`.`name`)"},
		{"Substring", []fragment.Fragment{colArg("name"), fragment.NewLiteral("1"), fragment.NewLiteral("3")}, "SUBSTR(`Extent1`.`name`, 1, 3)"},
		{"AddDays", []fragment.Fragment{colArg("at"), fragment.NewLiteral("7")}, "DATE_ADD(`Extent1`.`at`, INTERVAL 7 DAY)"},
		{"XCoordinate", []fragment.Fragment{colArg("loc")}, "ST_X(`Extent1`.`loc`)"},
		{"BitwiseAnd", []fragment.Fragment{colArg("flags"), fragment.NewLiteral("4")}, "`Extent1`.`flags` & 4"},
		{"BitwiseNot", []fragment.Fragment{colArg("flags")}, "~(`Extent1`.`flags`)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := RenderFunction(canonical(tt.name), tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, fragment.SQL(f))
		})
	}
}

func TestRenderFunction_RoundDefaultsScale(t *testing.T) {
	one, err := RenderFunction(canonical("Round"), []fragment.Fragment{colArg("price")})
	require.NoError(t, err)
	two, err := RenderFunction(canonical("Round"), []fragment.Fragment{colArg("price"), fragment.NewLiteral("0")})
	require.NoError(t, err)

	assert.Equal(t, "ROUND(`Extent1`.`price`, 0)", fragment.SQL(one))
	assert.Equal(t, fragment.SQL(one), fragment.SQL(two))

	_, err = RenderFunction(canonical("Round"), nil)
	assert.True(t, errors.Is(err, ErrMalformedCall))
}

func TestRenderFunction_Arity(t *testing.T) {
	_, err := RenderFunction(canonical("Left"), []fragment.Fragment{colArg("name")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedCall))
	assert.Contains(t, err.Error(), "Left takes 2 arguments, got 1")
}

func TestRenderFunction_UserDefined(t *testing.T) {
	args := []fragment.Fragment{colArg("id"), fragment.NewLiteral("2")}

	f, err := RenderFunction(&queryir.Function{Namespace: "Shop", Name: "Discount", StoreName: "discount_for"}, args)
	require.NoError(t, err)
	assert.Equal(t, "`discount_for`(`Extent1`.`id`, 2)", fragment.SQL(f))

	f, err = RenderFunction(&queryir.Function{Namespace: "Store", Name: "COALESCE", BuiltIn: true}, args)
	require.NoError(t, err)
	assert.Equal(t, "COALESCE(`Extent1`.`id`, 2)", fragment.SQL(f))

	// Unknown canonical names fall through to the user-defined path.
	f, err = RenderFunction(canonical("Soundex"), args[:1])
	require.NoError(t, err)
	assert.Equal(t, "`Soundex`(`Extent1`.`id`)", fragment.SQL(f))

	f, err = RenderFunction(&queryir.Function{Namespace: "Store", Name: "CURRENT_USER", BuiltIn: true, Niladic: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, "CURRENT_USER", fragment.SQL(f))

	_, err = RenderFunction(&queryir.Function{Namespace: "Store", Name: "CURRENT_USER", Niladic: true}, args)
	assert.True(t, errors.Is(err, ErrMalformedCall))
}

func TestAggregateName(t *testing.T) {
	name, err := AggregateName(canonical("BigCount"))
	require.NoError(t, err)
	assert.Equal(t, "COUNT", name)

	name, err = AggregateName(canonical("Max"))
	require.NoError(t, err)
	assert.Equal(t, "MAX", name)

	_, err = AggregateName(&queryir.Function{Namespace: "Shop", Name: "Median"})
	assert.True(t, errors.Is(err, ErrUnsupportedAggregate))
}
