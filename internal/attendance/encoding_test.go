package attendance

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func roster(n int) []uint {
	ids := make([]uint, 0, n)
	for i := 1; i <= n; i++ {
		ids = append(ids, uint(i))
	}
	return ids
}

func TestEncodeStoresMinimalPolarity(t *testing.T) {
	for n := 0; n <= 12; n++ {
		for p := 0; p <= n; p++ {
			t.Run(fmt.Sprintf("n=%d/p=%d", n, p), func(t *testing.T) {
				members := roster(n)
				present := members[:p]

				enc := Encode(present, members)

				want := p
				if n-p < want {
					want = n - p
				}
				require.Equal(t, want, enc.Count())
				if n > 0 {
					require.Equal(t, p < n-p, enc.IsPresent)
				}
			})
		}
	}
}

func TestEncodeRoundTripReproducesPartition(t *testing.T) {
	members := roster(9)
	cases := [][]uint{
		{},
		{1},
		{2, 4, 6, 8},
		{1, 2, 3, 4, 5},
		{1, 2, 3, 4, 5, 6, 7, 8},
		members,
	}

	for _, present := range cases {
		enc := Encode(present, members)
		session := Session{ID: 1, IsPresent: enc.IsPresent, StudentIDs: enc.StudentIDs}

		presentSet := toSet(present)
		for _, id := range members {
			_, want := presentSet[id]
			require.Equal(t, want, session.Present(id), "student %d with present=%v", id, present)
		}
	}
}

func TestEncodeDropsStudentsOutsideRoster(t *testing.T) {
	members := []uint{1, 2, 3, 4, 5, 6}

	enc := Encode([]uint{1, 99}, members)
	require.True(t, enc.IsPresent)
	require.Equal(t, []uint{1}, enc.StudentIDs)

	summaries := Summarize([]Session{{ID: 1, IsPresent: enc.IsPresent, StudentIDs: enc.StudentIDs}}, members)
	for _, summary := range summaries {
		require.NotEqual(t, uint(99), summary.StudentID)
	}
	require.Equal(t, 1, summaries[0].Present)
	require.Equal(t, 0, summaries[1].Present)
}

func TestEncodeDeduplicatesPresentIDs(t *testing.T) {
	enc := Encode([]uint{2, 2, 2}, roster(10))
	require.True(t, enc.IsPresent)
	require.Equal(t, []uint{2}, enc.StudentIDs)
}

func TestEncodeEmptyRoster(t *testing.T) {
	enc := Encode([]uint{1, 2}, nil)
	require.True(t, enc.IsPresent)
	require.Empty(t, enc.StudentIDs)
}

func TestEncodeMostlyPresentListsAbsentees(t *testing.T) {
	members := roster(30)
	enc := Encode(members[:25], members)
	require.False(t, enc.IsPresent)
	require.Equal(t, []uint{26, 27, 28, 29, 30}, enc.StudentIDs)
}

func TestPresentFromSubmission(t *testing.T) {
	members := []uint{1, 2, 3, 4}

	require.Equal(t, []uint{1, 3}, PresentFromSubmission([]uint{3, 1, 7}, true, members))
	require.Equal(t, []uint{2, 4}, PresentFromSubmission([]uint{1, 3, 7}, false, members))
	require.Equal(t, []uint{1, 2, 3, 4}, PresentFromSubmission(nil, false, members))
}

func TestTruncateDayUsesUTC(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	local := time.Date(2024, 8, 12, 3, 0, 0, 0, ist)

	day := TruncateDay(local)
	require.Equal(t, time.Date(2024, 8, 11, 0, 0, 0, 0, time.UTC), day)
	require.True(t, SameDay(local, time.Date(2024, 8, 11, 23, 59, 0, 0, time.UTC)))
}
