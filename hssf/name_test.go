package hssf

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNameLookupAndBounds(t *testing.T) {
	w := NewWorkbook()
	addSheets(t, w, "Sheet1")

	_, err := w.NameAt(0)
	require.Error(t, err)
	assert.True(t, IsInvalidStateError(err))
	assert.EqualError(t, err, "There are no defined names in this workbook")

	n, err := w.CreateName("myname")
	require.NoError(t, err)
	require.NotNil(t, n)

	assert.Nil(t, w.Name("somename"))
	assert.NotNil(t, w.Name("myname"))
	assert.NotNil(t, w.Name("MYNAME"))
	assert.Equal(t, 0, w.NameIndex("myname"))
	assert.Equal(t, 1, w.NumberOfNames())

	_, err = w.NameAt(5)
	require.Error(t, err)
	assert.True(t, IsInvalidArgumentError(err))
	assert.EqualError(t, err, "Specified name index 5 is outside the allowable range (0..0).")

	_, err = w.NameAt(-3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outside the allowable range")

	got, err := w.NameAt(0)
	require.NoError(t, err)
	assert.Equal(t, "myname", got.NameText())
}

func TestNameTextValidation(t *testing.T) {
	w := NewWorkbook()
	addSheets(t, w, "Sheet1")

	_, err := w.CreateName("")
	require.Error(t, err)
	assert.EqualError(t, err, "Name cannot be blank")

	_, err = w.CreateName("1bad")
	require.Error(t, err)
	assert.EqualError(t, err,
		"Invalid name: '1bad'; Names must begin with a letter or underscore and not contain spaces")

	_, err = w.CreateName("has space")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not contain spaces")

	assert.Equal(t, 0, w.NumberOfNames())

	_, err = w.CreateName("_ok")
	require.NoError(t, err)
	_, err = w.CreateName("létter")
	require.NoError(t, err)
	assert.Equal(t, 2, w.NumberOfNames())

	_, err = w.CreateName("_OK")
	require.Error(t, err)
	assert.EqualError(t, err, "The workbook already contains this name: _OK")
	assert.Equal(t, 2, w.NumberOfNames())
}

func TestNameScopes(t *testing.T) {
	w := NewWorkbook()
	addSheets(t, w, "Sheet1", "Sheet2")

	global, err := w.CreateName("Budget")
	require.NoError(t, err)
	assert.Equal(t, -1, global.SheetIndex())

	scoped, err := w.CreateName("Other")
	require.NoError(t, err)
	require.NoError(t, scoped.SetSheetIndex(0))
	assert.Equal(t, 0, scoped.SheetIndex())

	// the same text may live in different scopes
	require.NoError(t, scoped.SetNameText("Budget"))

	third, err := w.CreateName("Third")
	require.NoError(t, err)
	require.NoError(t, third.SetSheetIndex(0))
	err = third.SetNameText("budget")
	require.Error(t, err)
	assert.EqualError(t, err, "The sheet already contains this name: budget")
	assert.Equal(t, "Third", third.NameText())

	fourth, err := w.CreateName("Fourth")
	require.NoError(t, err)
	err = fourth.SetNameText("BUDGET")
	require.Error(t, err)
	assert.EqualError(t, err, "The workbook already contains this name: BUDGET")
	assert.Equal(t, "Fourth", fourth.NameText())

	err = fourth.SetSheetIndex(5)
	require.Error(t, err)
	assert.EqualError(t, err, "Sheet index (5) is out of range (0..1)")
	require.NoError(t, fourth.SetSheetIndex(-1))
}

func TestRemoveNames(t *testing.T) {
	w := NewWorkbook()
	addSheets(t, w, "Sheet1")
	_, err := w.CreateName("first")
	require.NoError(t, err)
	_, err = w.CreateName("second")
	require.NoError(t, err)

	require.NoError(t, w.RemoveName("first"))
	assert.Equal(t, 1, w.NumberOfNames())
	assert.Equal(t, 0, w.NameIndex("second"))

	err = w.RemoveName("gone")
	require.Error(t, err)
	assert.True(t, IsInvalidArgumentError(err))

	require.NoError(t, w.RemoveNameAt(0))
	assert.Equal(t, 0, w.NumberOfNames())

	err = w.RemoveNameAt(0)
	require.Error(t, err)
}

func TestNameRefersToRoundTrip(t *testing.T) {
	w := NewWorkbook()
	addSheets(t, w, "Sheet1", "My Sheet")

	tests := []struct {
		name    string
		formula string
		want    string
	}{
		{"plain", "A1", "A1"},
		{"area", "$A$1:$B$2", "$A$1:$B$2"},
		{"threeD", "Sheet1!$A$1", "Sheet1!$A$1"},
		{"quoted", "'My Sheet'!A1:D4", "'My Sheet'!A1:D4"},
		{"equalsPrefix", "='My Sheet'!$C$3", "'My Sheet'!$C$3"},
	}
	for _, test := range tests {
		n, err := w.CreateName(test.name)
		require.NoError(t, err)
		require.NoError(t, n.SetRefersTo(test.formula))
		assert.Equal(t, test.want, n.RefersTo(), test.name)
		assert.False(t, n.IsDeleted(), test.name)
	}

	back := writeAndReopen(t, w)
	for _, test := range tests {
		n := back.Name(test.name)
		require.NotNil(t, n, test.name)
		assert.Equal(t, test.want, n.RefersTo(), test.name)
	}
}

func TestSetRefersToRejectsUnsupportedFormulas(t *testing.T) {
	w := NewWorkbook()
	addSheets(t, w, "Sheet1")
	n, err := w.CreateName("target")
	require.NoError(t, err)
	require.NoError(t, n.SetRefersTo("Sheet1!$A$1"))

	bad := []string{
		"SUM(A1:B2)",
		"A1+B2",
		"",
		"Missing!A1",
		"Sheet1!NOTACELL",
	}
	for _, formula := range bad {
		err := n.SetRefersTo(formula)
		require.Error(t, err, formula)
		assert.True(t, IsInvalidArgumentError(err), formula)
	}
	err = n.SetRefersTo("Missing!A1")
	assert.EqualError(t, err, "Sheet 'Missing' does not exist in this workbook")

	// rejected formulas leave the previous reference in place
	assert.Equal(t, "Sheet1!$A$1", n.RefersTo())
}

func TestNameDegradesToRefErrorAfterSheetDelete(t *testing.T) {
	w := NewWorkbook()
	addSheets(t, w, "Sheet1", "Sheet2", "Sheet3")

	n, err := w.CreateName("On2")
	require.NoError(t, err)
	require.NoError(t, n.SetRefersTo("Sheet2!$A$1:$A$3"))
	assert.False(t, n.IsDeleted())

	require.NoError(t, w.RemoveSheetAt(1))
	assert.True(t, n.IsDeleted())
	assert.Equal(t, "#REF!$A$1:$A$3", n.RefersTo())

	// a new sheet with the old name never revives the dead reference
	_, err = w.CreateSheet("Sheet2")
	require.NoError(t, err)
	assert.Equal(t, "#REF!$A$1:$A$3", n.RefersTo())

	back := writeAndReopen(t, w)
	bn := back.Name("On2")
	require.NotNil(t, bn)
	assert.True(t, bn.IsDeleted())
	assert.Equal(t, "#REF!$A$1:$A$3", bn.RefersTo())
}

func TestSetSheetOrderKeepsNameReferences(t *testing.T) {
	w := NewWorkbook()
	addSheets(t, w, "first sheet", "other sheet")

	name1, err := w.CreateName("name1")
	require.NoError(t, err)
	require.NoError(t, name1.SetRefersTo("'first sheet'!D1"))
	name2, err := w.CreateName("name2")
	require.NoError(t, err)
	require.NoError(t, name2.SetRefersTo("'other sheet'!C1"))

	require.NoError(t, w.SetSheetOrder("other sheet", 0))

	assert.Equal(t, "'first sheet'!D1", w.Name("name1").RefersTo())
	assert.Equal(t, "'other sheet'!C1", w.Name("name2").RefersTo())

	back := writeAndReopen(t, w)
	assert.Equal(t, "'first sheet'!D1", back.Name("name1").RefersTo())
	assert.Equal(t, "'other sheet'!C1", back.Name("name2").RefersTo())
}

func TestScopedNameSurvivesWritesAndDeletes(t *testing.T) {
	w := NewWorkbook()
	addSheets(t, w, "Sheet1", "Sheet2", "Sheet3", "ASheet")

	n, err := w.CreateName("AName")
	require.NoError(t, err)
	require.NoError(t, n.SetSheetIndex(3))
	require.NoError(t, n.SetRefersTo("ASheet!A1"))
	assert.Equal(t, "ASheet!A1", n.RefersTo())

	var first bytes.Buffer
	require.NoError(t, w.Write(&first))
	assert.Equal(t, "ASheet!A1", n.RefersTo())

	require.NoError(t, w.RemoveSheetAt(1))
	assert.Equal(t, []string{"Sheet1", "Sheet3", "ASheet"}, sheetNames(t, w))
	assert.Equal(t, "ASheet!A1", n.RefersTo())
	assert.Equal(t, 2, n.SheetIndex())

	var second bytes.Buffer
	require.NoError(t, w.Write(&second))

	wb2, err := OpenReader(bytes.NewReader(first.Bytes()))
	require.NoError(t, err)
	n2 := wb2.Name("AName")
	require.NotNil(t, n2)
	assert.Equal(t, "ASheet!A1", n2.RefersTo())
	assert.Equal(t, 3, n2.SheetIndex())

	wb3, err := OpenReader(bytes.NewReader(second.Bytes()))
	require.NoError(t, err)
	n3 := wb3.Name("AName")
	require.NotNil(t, n3)
	assert.Equal(t, "ASheet!A1", n3.RefersTo())
	assert.Equal(t, 2, n3.SheetIndex())
}
