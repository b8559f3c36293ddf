package fixedwidth

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSchema = Schema{
	{Name: "id", Start: 0, End: 5, Kind: String},
	{Name: "num", Start: 2, End: 5, Kind: Int, Optional: true},
	{Name: "lat", Start: 6, End: 12, Kind: Float},
	{Name: "year", Start: 13, End: 17, Kind: Int},
	{Name: "name", Start: 18, End: 30, Kind: String},
}

func TestSchema_Parse(t *testing.T) {
	rec, err := testSchema.Parse("AB123  31.02 1957 HONG KONG")
	require.NoError(t, err)

	assert.Equal(t, "AB123", rec.String("id"))
	n, ok := rec.Int("num")
	assert.True(t, ok)
	assert.Equal(t, 123, n)
	lat, ok := rec.Float("lat")
	assert.True(t, ok)
	assert.Equal(t, 31.02, lat)
	year, ok := rec.Int("year")
	assert.True(t, ok)
	assert.Equal(t, 1957, year)
	assert.Equal(t, "HONG KONG", rec.String("name"))
}

func TestSchema_Parse_OptionalRecovers(t *testing.T) {
	rec, err := testSchema.Parse("ABXYZ  31.02 1957 X")
	require.NoError(t, err)

	_, ok := rec.Int("num")
	assert.False(t, ok)
	assert.Equal(t, "XYZ", rec.String("num"))
}

func TestSchema_Parse_RequiredFails(t *testing.T) {
	_, err := testSchema.Parse("AB123  abcdef 1957 X")
	require.Error(t, err)

	var fe *FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "lat", fe.Column)
	assert.True(t, errors.Is(err, strconv.ErrSyntax))
}

func TestSchema_Parse_ShortLine(t *testing.T) {
	s := Schema{
		{Name: "id", Start: 0, End: 5, Kind: String},
		{Name: "name", Start: 18, End: 30, Kind: String},
	}
	rec, err := s.Parse("AB1")
	require.NoError(t, err)
	assert.Equal(t, "AB1", rec.String("id"))
	assert.Empty(t, rec.String("name"))
	assert.False(t, rec["name"].OK)
}

func TestSchema_Validate(t *testing.T) {
	require.NoError(t, testSchema.Validate())
	assert.Equal(t, 30, testSchema.Width())

	tests := []struct {
		name   string
		schema Schema
	}{
		{"no name", Schema{{Start: 0, End: 1}}},
		{"empty range", Schema{{Name: "a", Start: 3, End: 3}}},
		{"negative start", Schema{{Name: "a", Start: -1, End: 3}}},
		{"duplicate", Schema{{Name: "a", Start: 0, End: 1}, {Name: "a", Start: 1, End: 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.schema.Validate())
		})
	}
}
