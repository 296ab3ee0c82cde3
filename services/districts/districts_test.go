package districts

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func singleSeat(id int64, chamber, number, name, holder string) Seat {
	return Seat{
		ID:             id,
		DistrictID:     id,
		Chamber:        chamber,
		DistrictNumber: number,
		DistrictName:   name,
		NumSeats:       1,
		OfficeType:     "State " + chamber,
		CurrentHolder:  holder,
	}
}

func TestResolveDirect(t *testing.T) {
	ix := NewIndex("TX", []Seat{
		singleSeat(1, "House", "1", "", ""),
		singleSeat(2, "House", "2", "", ""),
	})

	res, err := ix.Resolve("House", "2")
	require.NoError(t, err)
	require.Len(t, res.Seats, 1)
	require.Equal(t, int64(2), res.Seats[0].ID)

	// leading zeros are source formatting, not identity
	res, err = ix.Resolve("House", "02")
	require.NoError(t, err)
	require.Equal(t, int64(2), res.Seats[0].ID)

	_, err = ix.Resolve("House", "99")
	require.ErrorIs(t, err, ErrUnmatched)
}

func TestResolveMinnesotaHouse(t *testing.T) {
	var seats []Seat
	for i := int64(120); i <= 128; i++ {
		seats = append(seats, singleSeat(i, "House", fmtInt(i), "", ""))
	}
	ix := NewIndex("MN", seats)

	// senate district 62: sub-seat A → 123, B → 124
	res, err := ix.Resolve("House", "62B")
	require.NoError(t, err)
	require.Equal(t, "124", res.Seats[0].DistrictNumber)

	res, err = ix.Resolve("House", "62A")
	require.NoError(t, err)
	require.Equal(t, "123", res.Seats[0].DistrictNumber)
}

func fmtInt(i int64) string {
	return string(rune('0'+i/100%10)) + string(rune('0'+i/10%10)) + string(rune('0'+i%10))
}

func TestResolveAlaskaSenate(t *testing.T) {
	ix := NewIndex("AK", []Seat{
		singleSeat(1, "Senate", "1", "", ""),
		singleSeat(20, "Senate", "20", "", ""),
	})

	res, err := ix.Resolve("Senate", "A")
	require.NoError(t, err)
	require.Equal(t, "1", res.Seats[0].DistrictNumber)

	res, err = ix.Resolve("Senate", "T")
	require.NoError(t, err)
	require.Equal(t, "20", res.Seats[0].DistrictNumber)
}

func pairedDistrict(chamber string) []Seat {
	a := singleSeat(10, chamber, "1", "", "Alice Anders")
	a.Designator = "A"
	a.NumSeats = 2
	b := singleSeat(11, chamber, "1", "", "Bob Breck")
	b.DistrictID = 10
	b.Designator = "B"
	b.NumSeats = 2
	return []Seat{a, b}
}

func TestResolvePairedHouse(t *testing.T) {
	ix := NewIndex("WA", pairedDistrict("House"))

	res, err := ix.Resolve("House", "1-Position 2")
	require.NoError(t, err)
	require.Len(t, res.Seats, 2)
	require.Equal(t, "B", res.SeatHint)

	ix = NewIndex("ID", pairedDistrict("House"))
	res, err = ix.Resolve("House", "1A")
	require.NoError(t, err)
	require.Equal(t, "A", res.SeatHint)
	require.Len(t, res.Seats, 2)
}

func TestResolveVermont(t *testing.T) {
	ix := NewIndex("VT", []Seat{
		singleSeat(1, "House", "Grand Isle-Chittenden", "", ""),
		singleSeat(2, "House", "Addison", "", ""),
		singleSeat(3, "Senate", "Essex-Orleans", "", ""),
	})

	res, err := ix.Resolve("House", "Grand-Isle-Chittenden")
	require.NoError(t, err)
	require.Equal(t, int64(1), res.Seats[0].ID)

	res, err = ix.Resolve("House", "Addison-1")
	require.NoError(t, err)
	require.Equal(t, int64(2), res.Seats[0].ID)

	// sources split combined senate districts into components
	res, err = ix.Resolve("Senate", "Orleans")
	require.NoError(t, err)
	require.Equal(t, int64(3), res.Seats[0].ID)
}

func TestNamedDistrictNumbering(t *testing.T) {
	labels := []string{
		"3rd Essex District",
		"1st Essex",
		"Barnstable and Plymouth",
		"2nd Essex",
	}
	numbering := NamedDistrictNumbering(labels, "Senate")

	// sorted spelled-out: Barnstable..., First Essex, Second Essex, Third Essex
	require.Equal(t, "1", numbering["Barnstable and Plymouth"])
	require.Equal(t, "2", numbering["1st Essex"])
	require.Equal(t, "3", numbering["2nd Essex"])
	require.Equal(t, "4", numbering["3rd Essex"])
}

func TestResolveNamedNumbering(t *testing.T) {
	ix := NewIndex("MA", []Seat{
		singleSeat(1, "Senate", "1", "", ""),
		singleSeat(2, "Senate", "2", "", ""),
	})
	ix.InstallNamedNumbering("Senate", map[string]string{
		"Berkshire": "1",
		"Bristol":   "2",
	})

	res, err := ix.Resolve("Senate", "Bristol District")
	require.NoError(t, err)
	require.Equal(t, int64(2), res.Seats[0].ID)
}

func TestResolveDeterminism(t *testing.T) {
	ix := NewIndex("NH", []Seat{
		singleSeat(5, "House", "Hillsborough 12", "Hillsborough 12", ""),
		singleSeat(6, "House", "Hillsborough 2", "Hillsborough 2", ""),
	})
	for i := 0; i < 50; i++ {
		res, err := ix.Resolve("House", "Hillsborough 2")
		require.NoError(t, err)
		require.Equal(t, int64(6), res.Seats[0].ID)
	}
}

func TestAssignExplicitHints(t *testing.T) {
	seats := pairedDistrict("House")
	assignments, skips := Assign(seats, []Contender{
		{Name: "Carol Chen", SeatHint: "B"},
		{Name: "Dan Diaz", SeatHint: "A"},
		{Name: "Eve East", SeatHint: "C"},
	}, BySurname)

	require.Len(t, assignments, 2)
	require.Equal(t, "B", assignments[0].Seat.Designator)
	require.Equal(t, "A", assignments[1].Seat.Designator)
	require.Len(t, skips, 1)
	require.Equal(t, "unknown_seat_C", skips[0].Reason)
}

func TestAssignIncumbentContinuity(t *testing.T) {
	seats := pairedDistrict("House") // holders: A=Alice Anders, B=Bob Breck
	assignments, skips := Assign(seats, []Contender{
		{Name: "Zara Zimmer"},
		{Name: "Robert Breck", Incumbent: true},
	}, BySurname)

	require.Empty(t, skips)
	require.Len(t, assignments, 2)
	// the incumbent keeps seat B even though Z sorts after B
	require.Equal(t, "B", assignments[0].Seat.Designator)
	require.True(t, assignments[0].MatchedIncumbent)
	require.Equal(t, "Robert Breck", assignments[0].Contender.Name)
	require.Equal(t, "A", assignments[1].Seat.Designator)
	require.Equal(t, "Zara Zimmer", assignments[1].Contender.Name)
}

func TestAssignOverflowSkipped(t *testing.T) {
	// 2 seats, 3 contenders: nobody invents a third seat
	seats := pairedDistrict("House")
	assignments, skips := Assign(seats, []Contender{
		{Name: "Carl Cooper"},
		{Name: "Amy Abbot"},
		{Name: "Ben Barnes"},
	}, BySurname)

	require.Len(t, assignments, 2)
	require.Equal(t, "Amy Abbot", assignments[0].Contender.Name)
	require.Equal(t, "Ben Barnes", assignments[1].Contender.Name)
	require.Len(t, skips, 1)
	require.Equal(t, "Carl Cooper", skips[0].Contender.Name)
	require.Equal(t, "no_available_seat", skips[0].Reason)
}

func TestAssignByVotesDesc(t *testing.T) {
	seats := pairedDistrict("House")
	assignments, _ := Assign(seats, []Contender{
		{Name: "Amy Abbot", Votes: 900},
		{Name: "Ben Barnes", Votes: 1500},
	}, ByVotesDesc)

	require.Equal(t, "Ben Barnes", assignments[0].Contender.Name)
	require.Equal(t, "A", assignments[0].Seat.Designator)
	require.Equal(t, "Amy Abbot", assignments[1].Contender.Name)
}

func TestResolveByHolderNames(t *testing.T) {
	ix := NewIndex("NH", []Seat{
		singleSeat(1, "House", "Cheshire 1", "", "Paula Prentiss"),
		singleSeat(2, "House", "Cheshire 2", "", "Quinn Quimby"),
		singleSeat(3, "House", "Cheshire 3", "", "Rita Ruiz"),
	})

	res, ok := ix.ResolveByHolderNames("House", []string{"Rita Ruiz", "Sam Stone"})
	require.True(t, ok)
	require.Equal(t, "Cheshire 3", res.Seats[0].DistrictNumber)

	_, ok = ix.ResolveByHolderNames("House", []string{"Nobody Known"})
	require.False(t, ok)

	var unmatched error = ErrUnmatched
	require.True(t, errors.Is(unmatched, ErrUnmatched))
}
