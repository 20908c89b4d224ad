package window

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	la, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		t.Fatal(err)
	}

	testCases := []struct {
		year, month  int
		expectAfter  time.Time
		expectBefore time.Time
	}{
		{
			year: 2016, month: 3,
			expectAfter:  time.Date(2016, time.March, 1, 0, 0, 0, 0, la),
			expectBefore: time.Date(2016, time.April, 1, 0, 0, 0, 0, la),
		},
		{
			year: 2016, month: 12,
			expectAfter:  time.Date(2016, time.December, 1, 0, 0, 0, 0, la),
			expectBefore: time.Date(2017, time.January, 1, 0, 0, 0, 0, la),
		},
		{
			year: 2017, month: 1,
			expectAfter:  time.Date(2017, time.January, 1, 0, 0, 0, 0, la),
			expectBefore: time.Date(2017, time.February, 1, 0, 0, 0, 0, la),
		},
	}

	for _, test := range testCases {
		w, err := New(test.year, test.month, la)
		require.NoError(t, err)
		require.Equal(t, test.expectAfter, w.After)
		require.Equal(t, test.expectBefore, w.Before)
		require.Equal(t, test.year, w.Year)
		require.Equal(t, time.Month(test.month), w.Month)
	}
}

func TestNewInvalid(t *testing.T) {
	for _, month := range []int{0, 13, -1} {
		_, err := New(2016, month, time.UTC)
		require.True(t, errors.Is(err, ErrInvalidMonth))
	}
	_, err := New(0, 5, time.UTC)
	require.True(t, errors.Is(err, ErrInvalidMonth))
}

func TestPrevious(t *testing.T) {
	testCases := []struct {
		now         time.Time
		expectYear  int
		expectMonth time.Month
	}{
		{now: time.Date(2016, time.April, 1, 6, 0, 0, 0, time.UTC), expectYear: 2016, expectMonth: time.March},
		{now: time.Date(2016, time.March, 31, 23, 0, 0, 0, time.UTC), expectYear: 2016, expectMonth: time.February},
		{now: time.Date(2017, time.January, 15, 0, 0, 0, 0, time.UTC), expectYear: 2016, expectMonth: time.December},
	}

	for _, test := range testCases {
		w := Previous(test.now)
		require.Equal(t, test.expectYear, w.Year)
		require.Equal(t, test.expectMonth, w.Month)
		require.True(t, w.Before.After(w.After))
		require.False(t, w.Contains(test.now))
		require.True(t, w.Contains(w.After))
		require.False(t, w.Contains(w.Before))
	}
}

func TestDetailFileName(t *testing.T) {
	w, err := New(2016, 3, time.UTC)
	require.NoError(t, err)
	require.Equal(t, "2016-3_seq-stats.txt", w.DetailFileName())

	w, err = New(2016, 11, time.UTC)
	require.NoError(t, err)
	require.Equal(t, "2016-11_seq-stats.txt", w.DetailFileName())
}
