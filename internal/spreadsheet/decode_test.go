package spreadsheet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T, rows map[string][]any, extraSheet bool) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	for cell, values := range rows {
		vals := values
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &vals))
	}
	if extraSheet {
		_, err := f.NewSheet("Ignored")
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Ignored", "A1", &[]any{"full_name"}))
		require.NoError(t, f.SetSheetRow("Ignored", "A2", &[]any{"should not appear"}))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestDecodeXLSX(t *testing.T) {
	data := buildWorkbook(t, map[string][]any{
		"A1": {"full_name", "email", "ad_id", "created_time", "opted_in"},
		"A2": {"Ada", "ada@example.com", 120200000001, 45000.5, true},
		// row 3 left blank
		"A4": {"Bob", "", "00123"},
	}, true)

	rows, err := Decode(data, "leads/upload.xlsx")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Ada", rows[0]["full_name"])
	assert.Equal(t, "ada@example.com", rows[0]["email"])
	assert.Equal(t, float64(120200000001), rows[0]["ad_id"])
	assert.Equal(t, 45000.5, rows[0]["created_time"])
	assert.Equal(t, true, rows[0]["opted_in"])

	assert.Equal(t, "Bob", rows[1]["full_name"])
	assert.Equal(t, "", rows[1]["email"])
	assert.Equal(t, "00123", rows[1]["ad_id"], "text cells stay text")
	assert.Equal(t, "", rows[1]["created_time"])
	assert.Equal(t, "", rows[1]["opted_in"])
}

func TestDecodeXLSX_HeaderOnly(t *testing.T) {
	data := buildWorkbook(t, map[string][]any{"A1": {"full_name", "email"}}, false)

	rows, err := Decode(data, "upload.XLSX")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestDecodeXLSX_Malformed(t *testing.T) {
	_, err := Decode([]byte("definitely not a zip"), "upload.xlsx")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDecode)
}

func TestDecode_UnsupportedExtension(t *testing.T) {
	_, err := Decode([]byte("a,b\n1,2\n"), "upload.pdf")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDecode)

	_, err = Decode([]byte("a,b\n1,2\n"), "no-extension")
	assert.ErrorIs(t, err, ErrDecode)
}

func TestDecodeCSV(t *testing.T) {
	data := []byte("\xEF\xBB\xBFfull_name,email,city\n" +
		"Ada,ada@example.com,London\n" +
		",,\n" +
		"Bob,bob@example.com\n" +
		"\"Cho, Jr.\",cho@example.com,Seoul,extra\n")

	rows, err := Decode(data, "upload.csv")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, Row{"full_name": "Ada", "email": "ada@example.com", "city": "London", "__EMPTY": ""}, rows[0])
	assert.Equal(t, "", rows[1]["city"])
	assert.Equal(t, "Cho, Jr.", rows[2]["full_name"])
	assert.Equal(t, "extra", rows[2]["__EMPTY"])
}

func TestDecodeCSV_Empty(t *testing.T) {
	rows, err := Decode(nil, "upload.csv")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestHeaderKeys(t *testing.T) {
	keys := headerKeys([]string{"name", "", "name", " ", "name_1", "name"}, 7)
	assert.Equal(t, []string{"name", "__EMPTY", "name_1", "__EMPTY_1", "name_1_1", "name_2", "__EMPTY_2"}, keys)
}

func TestTypedValue(t *testing.T) {
	assert.Equal(t, 12.5, typedValue(excelize.CellTypeUnset, "12.5"))
	assert.Equal(t, 3.0, typedValue(excelize.CellTypeNumber, "3"))
	assert.Equal(t, "abc", typedValue(excelize.CellTypeUnset, "abc"))
	assert.Equal(t, "12", typedValue(excelize.CellTypeSharedString, "12"))
	assert.Equal(t, true, typedValue(excelize.CellTypeBool, "1"))
	assert.Equal(t, false, typedValue(excelize.CellTypeBool, "0"))
	assert.Equal(t, "2024-01-15T00:00:00Z", typedValue(excelize.CellTypeDate, "2024-01-15T00:00:00Z"))
}
