package hhmm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddWrapsPastMidnight(t *testing.T) {
	got, wrapped, err := Add("23:50", "00:20")
	require.NoError(t, err)
	assert.Equal(t, "00:10", got)
	assert.True(t, wrapped)
}

func TestAddWithoutWrap(t *testing.T) {
	got, wrapped, err := Add("10:00", "02:30")
	require.NoError(t, err)
	assert.Equal(t, "12:30", got)
	assert.False(t, wrapped)
}

func TestAddZeroDuration(t *testing.T) {
	got, wrapped, err := Add("10:00", "00:00")
	require.NoError(t, err)
	assert.Equal(t, "10:00", got)
	assert.False(t, wrapped)
}

func TestAddRejectsMalformedInput(t *testing.T) {
	for _, raw := range []string{"", "9:00", "24h", "12:60", "ab:cd", "12-30"} {
		_, _, err := Add(raw, "00:10")
		assert.Error(t, err, raw)
	}
}

func TestSumDoesNotWrap(t *testing.T) {
	got, err := Sum([]string{"12:30", "13:45"})
	require.NoError(t, err)
	assert.Equal(t, "26:15", got)
}

func TestSumSkipsBlankEntries(t *testing.T) {
	got, err := Sum([]string{"01:30", "", "00:45", " "})
	require.NoError(t, err)
	assert.Equal(t, "02:15", got)
}

func TestSumEmpty(t *testing.T) {
	got, err := Sum(nil)
	require.NoError(t, err)
	assert.Equal(t, "00:00", got)
}

func TestDiffAcrossMidnight(t *testing.T) {
	got, err := Diff("23:30", "01:15")
	require.NoError(t, err)
	assert.Equal(t, "01:45", got)
}

func TestDiffSameDay(t *testing.T) {
	got, err := Diff("08:00", "10:00")
	require.NoError(t, err)
	assert.Equal(t, "02:00", got)
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("00:00"))
	assert.True(t, Valid("23:59"))
	assert.True(t, Valid("36:15"))
	assert.False(t, Valid("7:15"))
	assert.False(t, Valid("12:5"))
	assert.False(t, Valid("12:75"))
}

func TestValidTime(t *testing.T) {
	assert.True(t, ValidTime("00:00"))
	assert.True(t, ValidTime("23:59"))
	assert.False(t, ValidTime("24:00"))
	assert.False(t, ValidTime("27:00"))
	assert.False(t, ValidTime("99:59"))
	assert.False(t, ValidTime("119:30"))
	assert.False(t, ValidTime("7:15"))
}

func TestParseFormatRoundTrip(t *testing.T) {
	minutes, err := Parse("27:05")
	require.NoError(t, err)
	assert.Equal(t, 27*60+5, minutes)
	assert.Equal(t, "27:05", Format(minutes))
}
