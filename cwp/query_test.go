package cwp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_OrderAndEscaping(t *testing.T) {
	q := NewQuery("-find")
	q.SetParam("-db", "people")
	q.SetParam("-lay", "Person Details")
	q.SetFieldParam("Name", "==John")
	q.SetFieldParam("Name.op", "eq")

	encoded, err := q.Encode()
	require.NoError(t, err)

	// Command token first, then parameters in insertion order.
	assert.Equal(t, "-find&-db=people&-lay=Person+Details&name=%3D%3DJohn&name.op=eq", encoded)
}

func TestEncode_MissingRequired(t *testing.T) {
	q := NewQuery("-find")
	q.SetParam("-db", "people")

	_, err := q.Encode()
	require.Error(t, err)

	var mp *MissingParamError
	require.ErrorAs(t, err, &mp)
	assert.Equal(t, []string{"-lay"}, mp.Missing)
}

func TestEncode_UnknownCommand(t *testing.T) {
	q := NewQuery("-frobnicate")
	_, err := q.Encode()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")
}

func TestEncode_RejectsUnacceptedParam(t *testing.T) {
	q := NewQuery("-dbnames")
	q.SetParam("-recid", "12")

	_, err := q.Encode()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not accept")
}

func TestEncode_RejectsFieldParamsWhereForbidden(t *testing.T) {
	q := NewQuery("-delete")
	q.SetParam("-db", "people")
	q.SetParam("-lay", "Person")
	q.SetParam("-recid", "7")
	q.SetFieldParam("Name", "John")

	_, err := q.Encode()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field-name parameters")
}

func TestEncode_CompoundFind(t *testing.T) {
	q := NewQuery("-findquery")
	q.SetParam("-db", "people")
	q.SetParam("-lay", "Person")
	q.SetParam("-query", "(q1);(q2)")
	q.SetParam("-q1", "Name")
	q.SetParam("-q1.value", "==John")
	q.SetParam("-q2", "Name")
	q.SetParam("-q2.value", "==Jane")

	encoded, err := q.Encode()
	require.NoError(t, err)
	assert.Equal(t,
		"-findquery&-db=people&-lay=Person&-query=%28q1%29%3B%28q2%29"+
			"&-q1=Name&-q1.value=%3D%3DJohn&-q2=Name&-q2.value=%3D%3DJane",
		encoded)
}

func TestEncode_CompoundParamsOnlyOnFindquery(t *testing.T) {
	q := NewQuery("-find")
	q.SetParam("-db", "people")
	q.SetParam("-lay", "Person")
	q.SetParam("-q1", "Name")

	_, err := q.Encode()
	require.Error(t, err)
}

func TestEncode_NumberedSortParams(t *testing.T) {
	q := NewQuery("-findall")
	q.SetParam("-db", "people")
	q.SetParam("-lay", "Person")
	q.SetParam("-sortfield.1", "Name")
	q.SetParam("-sortorder.1", "ascend")
	q.SetParam("-max", "10")

	encoded, err := q.Encode()
	require.NoError(t, err)
	assert.Equal(t, "-findall&-db=people&-lay=Person&-sortfield.1=Name&-sortorder.1=ascend&-max=10", encoded)
}

func TestSetParam_ReplacesInPlace(t *testing.T) {
	q := NewQuery("-findall")
	q.SetParam("-db", "people")
	q.SetParam("-lay", "Person")
	q.SetParam("-max", "1")
	q.SetParam("-MAX", "5")

	encoded, err := q.Encode()
	require.NoError(t, err)
	assert.Equal(t, "-findall&-db=people&-lay=Person&-max=5", encoded)

	v, ok := q.Param("-max")
	require.True(t, ok)
	assert.Equal(t, "5", v)
}
