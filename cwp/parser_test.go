package cwp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleResultset = `<?xml version="1.0" encoding="UTF-8"?>
<fmresultset xmlns="http://www.filemaker.com/xml/fmresultset" version="1.0">
  <error code="0"/>
  <product build="03/05/2020" name="FileMaker Web Publishing Engine" version="18.0.4.428"/>
  <datasource database="people" date-format="MM/dd/yyyy" layout="Person"
    table="Person" time-format="HH:mm:ss" timestamp-format="MM/dd/yyyy HH:mm:ss" total-count="42"/>
  <metadata>
    <field-definition auto-enter="no" global="no" max-repeat="1" name="Name"
      not-empty="yes" result="text" type="normal"/>
    <field-definition auto-enter="no" global="no" max-repeat="1" name="Age"
      not-empty="no" result="number" type="normal"/>
    <relatedset-definition table="Orders">
      <field-definition auto-enter="no" global="no" max-repeat="1" name="Orders::Item"
        not-empty="no" result="text" type="normal"/>
    </relatedset-definition>
  </metadata>
  <resultset count="2" fetch-size="2">
    <record mod-id="3" record-id="11">
      <field name="Name"><data>John Doe</data></field>
      <field name="Age"><data>30</data></field>
      <relatedset count="2" table="Orders">
        <record mod-id="0" record-id="101">
          <field name="Orders::Item"><data>Apples</data></field>
        </record>
        <record mod-id="0" record-id="102">
          <field name="Orders::Item"><data>Pears</data></field>
        </record>
      </relatedset>
    </record>
    <record mod-id="0" record-id="12">
      <field name="Name"><data>Jane Roe</data></field>
      <field name="Age"><data></data></field>
    </record>
  </resultset>
</fmresultset>`

func TestParseResult_Records(t *testing.T) {
	result, err := ParseResult(strings.NewReader(sampleResultset))
	require.NoError(t, err)

	assert.Equal(t, "people", result.Datasource.Database)
	assert.Equal(t, "Person", result.Datasource.Layout)
	assert.Equal(t, "MM/dd/yyyy", result.Datasource.DateFormat)
	assert.Equal(t, 42, result.Datasource.TotalCount)
	assert.Equal(t, 2, result.FoundCount)
	assert.Equal(t, 2, result.FetchSize)

	require.Len(t, result.Records, 2)

	first := result.Records[0]
	assert.Equal(t, 11, first.ID)
	assert.Equal(t, 3, first.ModID)
	name, ok := first.Field("Name")
	require.True(t, ok)
	assert.Equal(t, "John Doe", name)
	age, ok := first.Field("age")
	require.True(t, ok)
	assert.Equal(t, "30", age)

	second := result.Records[1]
	age, ok = second.Field("Age")
	require.True(t, ok)
	assert.Equal(t, "", age)

	_, ok = second.Field("Missing")
	assert.False(t, ok)
}

func TestParseResult_Metadata(t *testing.T) {
	result, err := ParseResult(strings.NewReader(sampleResultset))
	require.NoError(t, err)

	// Related-set definitions stay out of the layout metadata.
	require.Len(t, result.Metadata, 2)
	assert.Equal(t, FieldDefinition{Name: "name", Result: "text", Type: "normal", NotEmpty: true}, result.Metadata[0])
	assert.Equal(t, FieldDefinition{Name: "age", Result: "number", Type: "normal", NotEmpty: false}, result.Metadata[1])
}

func TestParseResult_RelatedSets(t *testing.T) {
	result, err := ParseResult(strings.NewReader(sampleResultset))
	require.NoError(t, err)

	rs, ok := result.Records[0].RelatedSet("Orders")
	require.True(t, ok)
	require.Len(t, rs.Records, 2)

	item, ok := rs.Records[1].Field("Orders::Item")
	require.True(t, ok)
	assert.Equal(t, "Pears", item)

	_, ok = result.Records[1].RelatedSet("Orders")
	assert.False(t, ok)
}

func TestParseResult_ServerError(t *testing.T) {
	doc := `<?xml version="1.0" encoding="UTF-8"?>
<fmresultset xmlns="http://www.filemaker.com/xml/fmresultset" version="1.0">
  <error code="401"/>
</fmresultset>`

	_, err := ParseResult(strings.NewReader(doc))
	require.Error(t, err)

	var se *Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 401, se.Code)
	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "no records match")
}

func TestParseResult_UnknownErrorCode(t *testing.T) {
	doc := `<fmresultset><error code="9999"/></fmresultset>`

	_, err := ParseResult(strings.NewReader(doc))
	require.Error(t, err)

	var se *Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 9999, se.Code)
	assert.False(t, IsNotFound(err))
}

func TestParseResult_RepeatingField(t *testing.T) {
	doc := `<fmresultset>
  <error code="0"/>
  <resultset count="1" fetch-size="1">
    <record mod-id="0" record-id="1">
      <field name="Tags"><data>red</data><data>green</data></field>
    </record>
  </resultset>
</fmresultset>`

	result, err := ParseResult(strings.NewReader(doc))
	require.NoError(t, err)
	v, ok := result.Records[0].Field("Tags")
	require.True(t, ok)
	assert.Equal(t, "red\ngreen", v)
}

func TestParseResult_MalformedXML(t *testing.T) {
	_, err := ParseResult(strings.NewReader("<fmresultset><resultset>"))
	require.Error(t, err)
}
