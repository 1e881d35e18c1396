package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIncludedValue(t *testing.T) {
	for _, v := range []string{"Y", "y", "Yes", "YES", "yes", " y ", "yes "} {
		assert.True(t, IncludedValue(v), "%q should include", v)
	}
	for _, v := range []string{"", "N", "no", "true", "1", "maybe", "yess"} {
		assert.False(t, IncludedValue(v), "%q should exclude", v)
	}
}

func TestHeaderMapping_Validate(t *testing.T) {
	require.NoError(t, DefaultHeaderMapping().Validate())

	m := DefaultHeaderMapping()
	m.Notes = ""
	assert.Error(t, m.Validate())

	m = DefaultHeaderMapping()
	m.Section = m.Date
	assert.Error(t, m.Validate(), "two fields mapped to one column")

	m = DefaultHeaderMapping()
	m.Include = ""
	assert.NoError(t, m.Validate(), "include column is optional")
}

func TestHeaderMapping_RequiredColumns(t *testing.T) {
	cols := DefaultHeaderMapping().RequiredColumns()
	assert.Equal(t, []string{"MEETING DATE", "AGENDA SECTION", "AGENDA ITEM", "NOTES"}, cols)
	assert.NotContains(t, cols, "Include in Summary for Mayor")
}
