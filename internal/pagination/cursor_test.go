package pagination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeCursor(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)
	encoded := EncodeCursor("doc-1", ts)
	require.NotEmpty(t, encoded)

	decoded, err := DecodeCursor(encoded)
	require.NoError(t, err)
	require.NotNil(t, decoded)
	assert.Equal(t, "doc-1", decoded.LastID)
	assert.True(t, ts.Equal(decoded.Timestamp))
}

func TestDecodeCursor_Empty(t *testing.T) {
	decoded, err := DecodeCursor("")
	require.NoError(t, err)
	assert.Nil(t, decoded)
}

func TestDecodeCursor_Invalid(t *testing.T) {
	_, err := DecodeCursor("not base64!")
	assert.ErrorIs(t, err, ErrInvalidCursor)

	_, err = DecodeCursor("bm8tc2VwYXJhdG9y")
	assert.ErrorIs(t, err, ErrInvalidCursor)
}

func TestCreateNextCursor(t *testing.T) {
	type item struct {
		id string
		ts time.Time
	}
	items := []item{
		{"a", time.Now()},
		{"b", time.Now()},
	}

	cursor := CreateNextCursor(items, 2,
		func(i item) string { return i.id },
		func(i item) time.Time { return i.ts },
	)
	assert.NotEmpty(t, cursor)

	// short page means no more results
	cursor = CreateNextCursor(items, 3,
		func(i item) string { return i.id },
		func(i item) time.Time { return i.ts },
	)
	assert.Empty(t, cursor)
}
