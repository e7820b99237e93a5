package etl

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/songline/pkg/songline"
)

func TestCopyStatement(t *testing.T) {
	sql := copyStatement(songline.SongsTable)
	assert.Equal(t,
		"COPY songs (song_id, title, artist_id, year, duration) FROM STDIN (FORMAT text, DELIMITER '|', NULL 'NULL')",
		sql)
}

func TestEncodeCopyValue(t *testing.T) {
	loc := "California - LA"
	lat := 35.14968

	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"nil", nil, "NULL"},
		{"string", "Casual", "Casual"},
		{"empty string", "", "NULL"},
		{"nil string pointer", (*string)(nil), "NULL"},
		{"string pointer", &loc, "California - LA"},
		{"int", 2004, "2004"},
		{"int64", int64(1542763205796), "1542763205796"},
		{"float64", 218.93179, "218.93179"},
		{"nil float pointer", (*float64)(nil), "NULL"},
		{"float pointer", &lat, "35.14968"},
		{"bool true", true, "t"},
		{"bool false", false, "f"},
		{
			"time",
			time.Date(2018, 11, 21, 1, 20, 5, 796000000, time.UTC),
			"2018-11-21 01:20:05.796+00",
		},
		{
			"uuid",
			uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"),
			"6ba7b810-9dad-11d1-80b4-00c04fd430c8",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := encodeCopyValue(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeCopyValue_UnsupportedType(t *testing.T) {
	_, err := encodeCopyValue(struct{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported value type")
}

func TestEscapeCopyText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "Frumpies", "Frumpies"},
		{"delimiter", "a|b", `a\|b`},
		{"backslash", `a\b`, `a\\b`},
		{"newline", "a\nb", `a\nb`},
		{"carriage return", "a\rb", `a\rb`},
		{"tab", "a\tb", `a\tb`},
		{"user agent quoting", `"Mozilla/5.0"`, `"Mozilla/5.0"`},
		{"unicode", "Beyoncé", "Beyoncé"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, escapeCopyText(tt.input))
		})
	}
}

func TestEncodeCopyRow(t *testing.T) {
	line, err := encodeCopyRow([]any{"SOMZWCG12A8C13C480", "I Didn't Mean To", "ARD7TVE1187B99BFB1", 0, 218.93179})
	require.NoError(t, err)
	assert.Equal(t, "SOMZWCG12A8C13C480|I Didn't Mean To|ARD7TVE1187B99BFB1|0|218.93179", line)
}

func TestEncodeCopyRow_NullableColumns(t *testing.T) {
	line, err := encodeCopyRow([]any{"AR1", "Unknown", (*string)(nil), (*float64)(nil), (*float64)(nil)})
	require.NoError(t, err)
	assert.Equal(t, "AR1|Unknown|NULL|NULL|NULL", line)
}

func TestNewCopyWriter_PanicsOnNilConn(t *testing.T) {
	assert.Panics(t, func() { NewCopyWriter(nil) })
}
