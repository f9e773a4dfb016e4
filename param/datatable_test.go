package param

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// S4: a,"b,c","d""e",f -> [a, b,c, d"e, f]
func TestParseCSVLineQuoting(t *testing.T) {
	fields := parseCSVLine(`a,"b,c","d""e",f`)
	require.Equal(t, []string{"a", "b,c", `d"e`, "f"}, fields)
}

func TestLoadDataTableCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rows.csv")
	require.NoError(t, os.WriteFile(path, []byte("1,alice\n2,bob\n\n3,carol\n"), 0644))

	dt, err := LoadDataTable(path)
	require.NoError(t, err)
	require.Equal(t, 2, dt.Len())
	require.Equal(t, "alice", dt.Cell(0, 1))
	require.Equal(t, "bob", dt.Cell(1, 1))
}

func TestLoadDataTableWhitespace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rows.txt")
	require.NoError(t, os.WriteFile(path, []byte("1   alice\n2 bob\n"), 0644))

	dt, err := LoadDataTable(path)
	require.NoError(t, err)
	require.Equal(t, 2, dt.Len())
	require.Equal(t, "alice", dt.Cell(0, 1))
}

func TestDataTableOutOfRange(t *testing.T) {
	dt := &DataTable{rows: [][]string{{"a"}}}
	require.Equal(t, "", dt.Cell(5, 0))
	require.Equal(t, "", dt.Cell(0, 5))
	var nilTable *DataTable
	require.Equal(t, 0, nilTable.Len())
}
