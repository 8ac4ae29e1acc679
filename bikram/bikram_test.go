package bikram_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sajha/inventory-engine/bikram"
)

// =============================================================================
// CONVERSION PROPERTIES
// =============================================================================

func TestRoundTrip_EveryDayInEra(t *testing.T) {
	// Every valid BS date must survive BS -> AD -> BS unchanged.
	for year := 2000; year <= 2090; year++ {
		for month := 1; month <= 12; month++ {
			length, err := bikram.MonthLength(year, month)
			require.NoError(t, err)
			for day := 1; day <= length; day++ {
				d := bikram.Date{Year: year, Month: month, Day: day}
				ad, err := bikram.ToAd(d)
				require.NoError(t, err, "ToAd(%s)", d)
				back, err := bikram.FromAd(ad)
				require.NoError(t, err, "FromAd(%s)", ad)
				require.Equal(t, d, back, "round trip for %s", d)
			}
		}
	}
}

func TestMonthLength_BoundsAndNoRollover(t *testing.T) {
	for year := 2000; year <= 2090; year++ {
		for month := 1; month <= 12; month++ {
			length, err := bikram.MonthLength(year, month)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, length, 28)
			assert.LessOrEqual(t, length, 32)

			// The last day of the month must not roll into the next month.
			last := bikram.Date{Year: year, Month: month, Day: length}
			ad, err := bikram.ToAd(last)
			require.NoError(t, err)
			back, err := bikram.FromAd(ad)
			require.NoError(t, err)
			assert.Equal(t, month, back.Month, "last day of %d-%02d rolled over", year, month)
		}
	}
}

func TestToAd_KnownNewYear(t *testing.T) {
	// BS 2081 Baisakh 1 fell on 13 April 2024.
	d, err := bikram.New(2081, 1, 1)
	require.NoError(t, err)
	ad, err := bikram.ToAd(d)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.April, 13, 0, 0, 0, 0, time.UTC), ad)
}

func TestFromAd_IgnoresClockTime(t *testing.T) {
	noon := time.Date(2024, time.April, 13, 12, 30, 45, 0, time.UTC)
	d, err := bikram.FromAd(noon)
	require.NoError(t, err)
	assert.Equal(t, bikram.Date{Year: 2081, Month: 1, Day: 1}, d)
}

// =============================================================================
// PARSING
// =============================================================================

func TestParse_BothDelimiters(t *testing.T) {
	dash, err := bikram.Parse("2081-04-01")
	require.NoError(t, err)
	slash, err := bikram.Parse("2081/04/01")
	require.NoError(t, err)
	assert.Equal(t, dash, slash)
}

func TestParse_Malformed(t *testing.T) {
	for _, s := range []string{"", "2081", "2081-04", "2081-04-01-02", "abc-de-fg", "2081-4-xx"} {
		_, err := bikram.Parse(s)
		assert.ErrorIs(t, err, bikram.ErrInvalidDateFormat, "input %q", s)
	}
}

func TestParse_DayBeyondMonthLength(t *testing.T) {
	// BS 2081 Baisakh has 31 days.
	_, err := bikram.Parse("2081-01-32")
	assert.ErrorIs(t, err, bikram.ErrInvalidDateFormat)
}

func TestNew_OutOfEra(t *testing.T) {
	_, err := bikram.New(1999, 1, 1)
	assert.ErrorIs(t, err, bikram.ErrOutOfRange)
	_, err = bikram.New(2091, 1, 1)
	assert.ErrorIs(t, err, bikram.ErrOutOfRange)
}

// =============================================================================
// ORDERING AND ARITHMETIC
// =============================================================================

func TestCompare_Lexicographic(t *testing.T) {
	a := bikram.Date{Year: 2080, Month: 12, Day: 30}
	b := bikram.Date{Year: 2081, Month: 1, Day: 1}
	assert.Equal(t, -1, bikram.Compare(a, b))
	assert.Equal(t, 1, bikram.Compare(b, a))
	assert.Equal(t, 0, bikram.Compare(a, a))
	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
}

func TestCompareStrings_NormalizesDelimiters(t *testing.T) {
	c, err := bikram.CompareStrings("2081/01/05", "2081-01-05")
	require.NoError(t, err)
	assert.Equal(t, 0, c)
}

func TestAddDays_CrossesMonthAndYearBoundaries(t *testing.T) {
	// BS 2081 Baisakh has 31 days.
	d, err := bikram.AddDays(bikram.Date{Year: 2081, Month: 1, Day: 31}, 1)
	require.NoError(t, err)
	assert.Equal(t, bikram.Date{Year: 2081, Month: 2, Day: 1}, d)

	// Stepping backwards across the new year.
	d, err = bikram.AddDays(bikram.Date{Year: 2081, Month: 1, Day: 1}, -1)
	require.NoError(t, err)
	assert.Equal(t, 2080, d.Year)
	assert.Equal(t, 12, d.Month)
}

func TestWeekday_AdvancesDaily(t *testing.T) {
	d := bikram.Date{Year: 2081, Month: 1, Day: 1}
	wd, err := bikram.Weekday(d)
	require.NoError(t, err)
	// 13 April 2024 was a Saturday.
	assert.Equal(t, time.Saturday, wd)

	next, err := bikram.AddDays(d, 1)
	require.NoError(t, err)
	wd2, err := bikram.Weekday(next)
	require.NoError(t, err)
	assert.Equal(t, time.Sunday, wd2)
}

// =============================================================================
// FISCAL YEAR
// =============================================================================

func TestFiscalYear_ShrawanBoundary(t *testing.T) {
	// Months 1-3 (Baisakh-Ashadh) belong to the previous fiscal year.
	assert.Equal(t, "2080/81", bikram.FiscalYear(bikram.Date{Year: 2081, Month: 3, Day: 31}))
	// Shrawan 1 opens the new fiscal year.
	assert.Equal(t, "2081/82", bikram.FiscalYear(bikram.Date{Year: 2081, Month: 4, Day: 1}))
	assert.Equal(t, "2081/82", bikram.FiscalYear(bikram.Date{Year: 2082, Month: 2, Day: 10}))
}

func TestFormatAd_BestEffort(t *testing.T) {
	assert.Equal(t, "2081-01-01", bikram.FormatAd(time.Date(2024, time.April, 13, 0, 0, 0, 0, time.UTC)))
	// Before the era: display degrades to empty rather than erroring.
	assert.Equal(t, "", bikram.FormatAd(time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)))
}
