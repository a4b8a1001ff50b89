package dates

import (
	"errors"
	"testing"
	"time"

	"github.com/hyperjump/jidai/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(year int) Option {
	return WithClock(func() time.Time { return time.Date(year, 6, 15, 12, 0, 0, 0, time.UTC) })
}

func TestDefault_equivalentFormatsResolveEqually(t *testing.T) {
	r := Default(fixedClock(2023))
	want := models.DateQuery{Day: 5, Month: 3, Year: 2023}
	for _, in := range []string{"05-03-2023", "5-3-2023", "05-03-23", "05-03", " 5-3 "} {
		got, err := r.Resolve(in)
		require.NoError(t, err, in)
		assert.True(t, want.Equal(got), "%q resolved to %+v", in, got)
	}
}

func TestDefault_yearInferredOnlyWhenOmitted(t *testing.T) {
	r := Default(fixedClock(2023))
	got, err := r.Resolve("05-03")
	require.NoError(t, err)
	assert.True(t, got.YearInferred)

	got, err = r.Resolve("05-03-2023")
	require.NoError(t, err)
	assert.False(t, got.YearInferred)
}

func TestDefault_invalid(t *testing.T) {
	r := Default(fixedClock(2023))
	for _, in := range []string{"31-02-2023", "hello", "", "32-01", "05/03/2023", "2023-03-05", "05-03-2023x"} {
		_, err := r.Resolve(in)
		assert.True(t, errors.Is(err, models.ErrInvalidDateFormat), "%q: got %v", in, err)
	}
}

func TestDefault_leapDayWithoutYear(t *testing.T) {
	_, err := Default(fixedClock(2023)).Resolve("29-02")
	assert.ErrorIs(t, err, models.ErrInvalidDateFormat)

	got, err := Default(fixedClock(2024)).Resolve("29-02")
	require.NoError(t, err)
	assert.Equal(t, models.DateQuery{Day: 29, Month: 2, Year: 2024, YearInferred: true}, got)
}

func TestDefault_twoDigitYearPivot(t *testing.T) {
	r := Default()
	got, err := r.Resolve("01-01-69")
	require.NoError(t, err)
	assert.Equal(t, 1969, got.Year)

	got, err = r.Resolve("01-01-68")
	require.NoError(t, err)
	assert.Equal(t, 2068, got.Year)
}

func TestChat(t *testing.T) {
	r := Chat(fixedClock(2026))

	got, err := r.Resolve("01/01")
	require.NoError(t, err)
	assert.Equal(t, models.DateQuery{Day: 1, Month: 1, Year: 2026, YearInferred: true}, got)

	got, err = r.Resolve("15/08/47")
	require.NoError(t, err)
	assert.Equal(t, models.DateQuery{Day: 15, Month: 8, Year: 2047}, got)

	_, err = r.Resolve("31/02/2023")
	assert.ErrorIs(t, err, models.ErrInvalidDateFormat)
}

func TestFormSpecificResolvers(t *testing.T) {
	got, err := ProcessForm().Resolve("26-01-1950")
	require.NoError(t, err)
	assert.Equal(t, "26-01-1950", got.String())
	_, err = ProcessForm().Resolve("26-01")
	assert.ErrorIs(t, err, models.ErrInvalidDateFormat)

	got, err = NewsForm().Resolve("1950-01-26")
	require.NoError(t, err)
	assert.Equal(t, "26-01-1950", got.String())
	_, err = NewsForm().Resolve("26-01-1950")
	assert.ErrorIs(t, err, models.ErrInvalidDateFormat)
}

func TestFormats(t *testing.T) {
	assert.Equal(t, "DD/MM/YY or DD/MM", Chat().Formats())
}
