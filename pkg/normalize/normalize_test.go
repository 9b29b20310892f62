package normalize

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/itohio/fueltable/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDefault() *Normalizer {
	return New(config.Default().Normalize)
}

func TestNormalizer_Row(t *testing.T) {
	tests := []struct {
		name          string
		row           []string
		want          []string
		wantConverted int
	}{
		{
			name:          "all three rescaled",
			row:           []string{"1000", "5000", "2500", "3000", "12.5", "Movement"},
			want:          []string{"1000", "50.00", "25.00", "30.00", "12.5", "Movement"},
			wantConverted: 3,
		},
		{
			name:          "open circuit passes through",
			row:           []string{"1000", "5000", "2500", "Open Circuit", "12.5", "Movement"},
			want:          []string{"1000", "50.00", "25.00", "Open Circuit", "12.5", "Movement"},
			wantConverted: 2,
		},
		{
			name:          "all sentinels",
			row:           []string{"1010", "No Data", "No Data", "Short Circuit", "1.0", "Stationary1"},
			want:          []string{"1010", "No Data", "No Data", "Short Circuit", "1.0", "Stationary1"},
			wantConverted: 0,
		},
		{
			name:          "disabled external",
			row:           []string{"1", "7", "99", "Disabled", "0"},
			want:          []string{"1", "0.07", "0.99", "Disabled", "0"},
			wantConverted: 2,
		},
		{
			name:          "negative values are not rescaled",
			row:           []string{"1", "-500", "2500", "-3000", "0"},
			want:          []string{"1", "-500", "25.00", "-3000", "0"},
			wantConverted: 1,
		},
		{
			name:          "already decimal values are not rescaled",
			row:           []string{"1", "50.00", "25.00", "30.00", "0"},
			want:          []string{"1", "50.00", "25.00", "30.00", "0"},
			wantConverted: 0,
		},
		{
			name:          "short row untouched",
			row:           []string{"1000", "5000", "2500", "3000"},
			want:          []string{"1000", "5000", "2500", "3000"},
			wantConverted: 0,
		},
		{
			name:          "extra columns pass through",
			row:           []string{"1000", "0", "2500", "3000", "-3.25", "ReturnToZero", "Down"},
			want:          []string{"1000", "0.00", "25.00", "30.00", "-3.25", "ReturnToZero", "Down"},
			wantConverted: 3,
		},
		{
			name:          "empty cells",
			row:           []string{"", "", "", "", ""},
			want:          []string{"", "", "", "", ""},
			wantConverted: 0,
		},
	}

	n := newDefault()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := append([]string(nil), tt.row...)

			got, converted := n.Row(tt.row)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantConverted, converted)
			assert.Equal(t, original, tt.row, "input row must not be mutated")
		})
	}
}

func TestNormalizer_Row_CustomConfig(t *testing.T) {
	n := New(config.NormalizeConfig{Divisor: 10, MinColumns: 2, Columns: []int{0, 9}})

	got, converted := n.Row([]string{"125", "5000"})
	assert.Equal(t, []string{"12.50", "5000"}, got)
	assert.Equal(t, 1, converted)
}

func TestNormalizer_Process(t *testing.T) {
	input := strings.Join([]string{
		"TimeMS,FuelLevel,InternalTemp,ExternalTemp,Pitch,Phase",
		"1000,5000,2500,3000,12.5,Movement",
		"1010,No Data,2501,Open Circuit,12.6,Movement",
		"garbage",
		"1020,4999,2502,3001,abc,Stationary1",
	}, "\n") + "\n"

	var out bytes.Buffer
	stats, err := newDefault().Process(strings.NewReader(input), &out)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Rows)
	assert.Equal(t, 7, stats.Rescaled)

	want := strings.Join([]string{
		"TimeMS,FuelLevel,InternalTemp,ExternalTemp,Pitch,Phase",
		"1000,50.00,25.00,30.00,12.5,Movement",
		"1010,No Data,25.01,Open Circuit,12.6,Movement",
		"garbage",
		"1020,49.99,25.02,30.01,abc,Stationary1",
	}, "\n") + "\n"
	assert.Equal(t, want, out.String())
}

func TestNormalizer_Process_PreservesShape(t *testing.T) {
	input := "a,b,c,d,e,f\n1,2,3,4,5,6\n1,2\n1,2,3,4,5,6,7,8\n"

	var out bytes.Buffer
	_, err := newDefault().Process(strings.NewReader(input), &out)
	require.NoError(t, err)

	readAll := func(s string) [][]string {
		r := csv.NewReader(strings.NewReader(s))
		r.FieldsPerRecord = -1
		records, err := r.ReadAll()
		require.NoError(t, err)
		return records
	}

	in, got := readAll(input), readAll(out.String())
	require.Equal(t, len(in), len(got))
	for i := range in {
		assert.Len(t, got[i], len(in[i]), "row %d", i)
	}
}

func TestNormalizer_Process_KeepsBlankLines(t *testing.T) {
	input := strings.Join([]string{
		"TimeMS,FuelLevel,InternalTemp,ExternalTemp,Pitch,Phase",
		"1000,5000,2500,3000,12.5,Movement",
		"",
		"1010,5001,2501,3001,12.6,Movement",
		"",
	}, "\n") + "\n"

	var out bytes.Buffer
	stats, err := newDefault().Process(strings.NewReader(input), &out)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Rows)
	assert.Equal(t, 6, stats.Rescaled)

	want := strings.Join([]string{
		"TimeMS,FuelLevel,InternalTemp,ExternalTemp,Pitch,Phase",
		"1000,50.00,25.00,30.00,12.5,Movement",
		"",
		"1010,50.01,25.01,30.01,12.6,Movement",
		"",
	}, "\n") + "\n"
	assert.Equal(t, want, out.String())
	assert.Equal(t, strings.Count(input, "\n"), strings.Count(out.String(), "\n"))
}

func TestNormalizer_Process_UnchangedRowsVerbatim(t *testing.T) {
	rows := []string{
		"TimeMS, FuelLevel ,InternalTemp,ExternalTemp,Pitch,Phase",
		"1000, 5000,Open Circuit,Short Circuit,12.5, Movement",
		`1010,"No Data",abc,,12.6,"Stationary1"`,
		"   ",
		`1020,"unterminated`,
	}
	input := strings.Join(rows, "\n") + "\n"

	var out bytes.Buffer
	stats, err := newDefault().Process(strings.NewReader(input), &out)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Rows)
	assert.Equal(t, 0, stats.Rescaled)
	assert.Equal(t, input, out.String())
}

func TestNormalizer_Process_EmptyInput(t *testing.T) {
	var out bytes.Buffer
	_, err := newDefault().Process(strings.NewReader(""), &out)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestNormalizer_Process_HeaderOnly(t *testing.T) {
	var out bytes.Buffer
	stats, err := newDefault().Process(strings.NewReader("TimeMS,FuelLevel\n"), &out)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Rows)
	assert.Equal(t, "TimeMS,FuelLevel\n", out.String())
}

func TestOutputPath(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	assert.Equal(t, filepath.Join("data", "run_processed_20250314_092653.csv"),
		OutputPath(filepath.Join("data", "run.csv"), now))
	assert.Equal(t, "run_processed_20250314_092653.csv", OutputPath("run", now))
}

func TestNormalizer_File(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "test_data_20250314_090000.csv")
	require.NoError(t, os.WriteFile(input, []byte("TimeMS,FuelLevel,InternalTemp,ExternalTemp,Pitch,Phase\n1000,5000,2500,3000,12.5,Movement\n"), 0644))

	now := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	output, stats, err := newDefault().File(input, now)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "test_data_20250314_090000_processed_20250314_092653.csv"), output)
	assert.Equal(t, 1, stats.Rows)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "TimeMS,FuelLevel,InternalTemp,ExternalTemp,Pitch,Phase\n1000,50.00,25.00,30.00,12.5,Movement\n", string(data))
}

func TestNormalizer_File_Missing(t *testing.T) {
	_, _, err := newDefault().File(filepath.Join(t.TempDir(), "missing.csv"), time.Now())
	assert.Error(t, err)
}
