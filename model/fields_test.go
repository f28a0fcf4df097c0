package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lariat-go/lariat/expr"
)

func TestFromWire_Numbers(t *testing.T) {
	strict := IntField("Age")
	lenient := IntField("Price", Lenient())

	v, err := strict.FromWire("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)

	v, err = strict.FromWire(" 42 ")
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)

	_, err = strict.FromWire("$1,234")
	require.Error(t, err)
	var ce *CoercionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "Age", ce.Field)

	v, err = lenient.FromWire("$1,234")
	require.NoError(t, err)
	assert.Equal(t, int64(1234), v)

	f := FloatField("Rate", Lenient())
	v, err = f.FromWire("$3.99 ea")
	require.NoError(t, err)
	assert.Equal(t, 3.99, v)
}

func TestFromWire_Empty(t *testing.T) {
	age := IntField("Age")
	v, err := age.FromWire("")
	require.NoError(t, err)
	assert.Nil(t, v)

	required := IntField("Age", NotEmpty())
	_, err = required.FromWire("")
	require.Error(t, err)

	name := StringField("Name")
	v, err = name.FromWire("")
	require.NoError(t, err)
	assert.Equal(t, "", v)

	_, err = StringField("Name", NotEmpty()).FromWire("")
	require.Error(t, err)
}

func TestFromWire_Bool(t *testing.T) {
	f := BoolField("Active")

	v, err := f.FromWire("0")
	require.NoError(t, err)
	assert.Equal(t, false, v)

	v, err = f.FromWire("1")
	require.NoError(t, err)
	assert.Equal(t, true, v)

	v, err = f.FromWire("")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestFromWire_Temporal(t *testing.T) {
	v, err := DateField("Hired").FromWire("07/04/2026")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 7, 4, 0, 0, 0, 0, time.UTC), v)

	v, err = TimeField("Start").FromWire("13:45:00")
	require.NoError(t, err)
	assert.Equal(t, 13, v.(time.Time).Hour())

	v, err = TimestampField("Created").FromWire("07/04/2026 13:45:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 7, 4, 13, 45, 0, 0, time.UTC), v)

	_, err = DateField("Hired").FromWire("2026-07-04")
	require.Error(t, err)
}

func TestToWire(t *testing.T) {
	w, err := IntField("Age").ToWire(42)
	require.NoError(t, err)
	assert.Equal(t, "42", w)

	w, err = IntField("Age").ToWire(int64(7))
	require.NoError(t, err)
	assert.Equal(t, "7", w)

	w, err = FloatField("Rate").ToWire(3.5)
	require.NoError(t, err)
	assert.Equal(t, "3.5", w)

	w, err = BoolField("Active").ToWire(true)
	require.NoError(t, err)
	assert.Equal(t, "1", w)

	w, err = DateField("Hired").ToWire(time.Date(2026, 7, 4, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "07/04/2026", w)

	w, err = StringField("Name").ToWire(nil)
	require.NoError(t, err)
	assert.Equal(t, "", w)

	_, err = StringField("Name", NotEmpty()).ToWire(nil)
	require.Error(t, err)

	_, err = IntField("Age").ToWire("not a number")
	require.Error(t, err)

	_, err = StringField("Total", Calc()).ToWire("anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read-only")
}

func TestComparisonHelpers(t *testing.T) {
	age := IntField("Age")
	name := StringField("Name")

	e, err := age.Gt(30)
	require.NoError(t, err)
	assert.Equal(t, expr.Comparison{Field: "Age", Op: expr.OpGt, Value: "30"}, e)

	e, err = name.Eq("John")
	require.NoError(t, err)
	assert.Equal(t, expr.Comparison{Field: "Name", Op: expr.OpEq, Value: "John"}, e)

	e, err = name.HasWord("Manager")
	require.NoError(t, err)
	assert.Equal(t, expr.Comparison{Field: "Name", Op: expr.OpHw, Value: "Manager"}, e)

	_, err = age.Contains("3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "string fields only")

	_, err = age.Eq("thirty")
	require.Error(t, err)

	e, err = age.Matches("30...40")
	require.NoError(t, err)
	assert.Equal(t, expr.Raw{Field: "Age", Query: "30...40"}, e)
}

func TestSortRules(t *testing.T) {
	name := StringField("Name")
	assert.Equal(t, Sort{Field: "Name", Order: OrderAscend}, name.Ascend())
	assert.Equal(t, Sort{Field: "Name", Order: OrderDescend}, name.Descend())
	assert.Equal(t, Sort{Field: "Age", Order: OrderAscend}, SortBy("Age", OrderAscend))
}

func TestDefinition(t *testing.T) {
	name := StringField("Name")
	age := IntField("Age")

	def, err := NewDefinition("people", "Person", name, age)
	require.NoError(t, err)

	f, ok := def.Field("NAME")
	require.True(t, ok)
	assert.Same(t, name, f)

	_, ok = def.Field("missing")
	assert.False(t, ok)

	assert.Equal(t, []*Field{name, age}, def.Fields())

	_, err = NewDefinition("people", "Person", name, StringField("NAME"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate field")

	_, err = NewDefinition("", "Person", name)
	require.Error(t, err)
}
