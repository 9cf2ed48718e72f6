package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCasualTotalSingleDay(t *testing.T) {
	d := day(2023, time.July, 10)
	got, err := CasualTotal(10, d, d, 9, 17)
	require.NoError(t, err)
	assert.Equal(t, float64(17-9)*10, got)
}

func TestCasualTotalMultiDay(t *testing.T) {
	got, err := CasualTotal(10, day(2023, time.July, 10), day(2023, time.July, 12), 9, 17)
	require.NoError(t, err)
	// (17-9) + 2*24 hours across three days
	assert.Equal(t, 560.0, got)
}

func TestCasualTotalTwoDays(t *testing.T) {
	got, err := CasualTotal(10, day(2023, time.July, 10), day(2023, time.July, 11), 9, 17)
	require.NoError(t, err)
	assert.Equal(t, ((17.0-9.0)+24.0)*10.0, got)
}

func TestCasualTotalWrapsMidnight(t *testing.T) {
	// 22:00 -> 06:00 the next day: 8 hours.
	got, err := CasualTotal(5, day(2023, time.July, 10), day(2023, time.July, 11), 22, 6)
	require.NoError(t, err)
	assert.Equal(t, 40.0, got)
}

func TestCasualTotalEndBeforeStart(t *testing.T) {
	_, err := CasualTotal(10, day(2023, time.July, 12), day(2023, time.July, 10), 9, 17)
	assert.Error(t, err)
}

func TestCasualTotalHourOutOfRange(t *testing.T) {
	d := day(2023, time.July, 10)
	_, err := CasualTotal(10, d, d, -1, 17)
	assert.Error(t, err)
	_, err = CasualTotal(10, d, d, 9, 24)
	assert.Error(t, err)
}

func TestMonthlyTotalPassThrough(t *testing.T) {
	assert.Equal(t, 450.0, MonthlyTotal(450))
}
