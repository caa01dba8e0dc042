package slot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSeparatorSpellings(t *testing.T) {
	// Historical data contains both hyphen and en-dash separators.
	assert.Equal(t, "20:00-21:00", Normalize("20:00-21:00"))
	assert.Equal(t, "20:00-21:00", Normalize("20:00–21:00"))
	assert.Equal(t, "20:00-21:00", Normalize("  20:00—21:00 "))
}

func TestNormalizeAllSorts(t *testing.T) {
	got := NormalizeAll([]string{"11:00–12:00", "10:00-11:00"})
	assert.Equal(t, []string{"10:00-11:00", "11:00-12:00"}, got)
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate([]string{"10:00-11:00", "11:00-12:00"}))

	assert.Error(t, Validate(nil), "empty set")
	assert.Error(t, Validate([]string{"10:00"}), "missing separator")
	assert.Error(t, Validate([]string{"25:00-26:00"}), "bad clock time")
	assert.Error(t, Validate([]string{"11:00-10:00"}), "start after end")
	assert.Error(t, Validate([]string{"10:00-11:00", "10:00-11:00"}), "duplicate token")
	assert.Error(t, Validate([]string{"10:00-12:00", "11:00-13:00"}), "overlapping intervals")
}

func TestOverlaps(t *testing.T) {
	a := []string{"10:00-11:00", "11:00-12:00"}
	assert.True(t, Overlaps(a, []string{"11:00-12:00"}))
	assert.False(t, Overlaps(a, []string{"12:00-13:00"}))
	assert.False(t, Overlaps(nil, a))
}

func TestDashSpellingsCompareEqualAfterNormalize(t *testing.T) {
	a := NormalizeAll([]string{"20:00–21:00"})
	b := NormalizeAll([]string{"20:00-21:00"})
	assert.True(t, Overlaps(a, b))
}
