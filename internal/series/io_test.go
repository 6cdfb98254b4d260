package series

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inf-covid19/prederr/internal/fileio"
)

const sampleJSON = `[
  {"date": "2020-03-01", "cases": 1, "deaths": 0, "new_cases": 1},
  {"date": "2020-03-02", "cases": 4, "deaths": 0},
  {"date": "2020-03-03", "cases": 9, "deaths": 1}
]`

func TestReadJSON_List(t *testing.T) {
	got, err := ReadJSON(strings.NewReader(sampleJSON))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, DailyRecord{Date: "2020-03-03", Cases: 9, Deaths: 1}, got[2])
}

func TestReadJSON_Wrapped(t *testing.T) {
	got, err := ReadJSON(strings.NewReader(`{"region": "br", "data": ` + sampleJSON + `}`))
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestReadJSON_FloatCounts(t *testing.T) {
	in := `[{"date": "2020-03-01", "cases": 12.0, "deaths": 1.0}, {"date": "2020-03-02", "cases": 1.5e1}]`

	got, err := ReadJSON(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, DailyRecord{Date: "2020-03-01", Cases: 12, Deaths: 1}, got[0])
	assert.Equal(t, DailyRecord{Date: "2020-03-02", Cases: 15, Deaths: 0}, got[1])

	// Same row through the CSV reader
	fromCSV, err := ReadCSV(strings.NewReader("date,cases,deaths\n2020-03-01,12.0,1.0\n"))
	require.NoError(t, err)
	assert.Equal(t, got[:1], fromCSV)
}

func TestReadJSON_Errors(t *testing.T) {
	_, err := ReadJSON(strings.NewReader("   "))
	assert.Error(t, err)

	_, err = ReadJSON(strings.NewReader(`[{"date": 3}]`))
	assert.Error(t, err)

	_, err = ReadJSON(strings.NewReader(`[{"date": "2020-03-01", "cases": 12.5}]`))
	assert.ErrorIs(t, err, ErrInvalidRecord)

	_, err = ReadJSON(strings.NewReader(`[{"date": "2020-03-01", "cases": "many"}]`))
	assert.Error(t, err)
}

func TestReadCSV(t *testing.T) {
	in := "deaths,date,cases,region\n" +
		"0,2020-03-01,1,br\n" +
		"0, 2020-03-02,4.0,br\n" +
		"\n" +
		"1,2020-03-03,9,br\n"

	got, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, DailyRecord{Date: "2020-03-02", Cases: 4, Deaths: 0}, got[1])
	assert.Equal(t, int64(1), got[2].Deaths)
}

func TestReadCSV_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{name: "missing column", in: "date,cases\n2020-03-01,1\n"},
		{name: "fractional count", in: "date,cases,deaths\n2020-03-01,1.5,0\n"},
		{name: "short row", in: "date,cases,deaths\n2020-03-01,1\n"},
		{name: "no header", in: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tc.in))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{"input.json", "input.json.gz", "input.json.zst"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			w, err := fileio.Create(path)
			require.NoError(t, err)
			_, err = w.Write([]byte(sampleJSON))
			require.NoError(t, err)
			require.NoError(t, w.Close())

			got, err := Load(path)
			require.NoError(t, err)
			assert.Len(t, got, 3)
		})
	}

	csvPath := filepath.Join(dir, "input.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("date,cases,deaths\n2020-03-01,2,0\n"), 0o644))
	got, err := Load(csvPath)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = Load(filepath.Join(dir, "input.parquet"))
	assert.Error(t, err)
}
