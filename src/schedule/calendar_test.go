package schedule

import (
	"testing"
	"time"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestCalendarOverlap(t *testing.T) {
	var weekdays uint8 = dayMonday | dayTuesday | dayWednesday | dayThursday | dayFriday
	var weekends uint8 = daySaturday | daySunday

	cases := []struct {
		name string
		a, b *Calendar
		want OverlapKind
	}{
		{
			name: "disjoint date ranges",
			a:    NewCalendar(date("2026-01-01"), date("2026-01-10"), weekdays),
			b:    NewCalendar(date("2026-02-01"), date("2026-02-10"), weekdays),
			want: OverlapNone,
		},
		{
			name: "overlapping range, disjoint days",
			a:    NewCalendar(date("2026-01-01"), date("2026-01-31"), weekdays),
			b:    NewCalendar(date("2026-01-01"), date("2026-01-31"), weekends),
			want: OverlapNone,
		},
		{
			name: "overlapping range and days",
			a:    NewCalendar(date("2026-01-01"), date("2026-01-31"), weekdays),
			b:    NewCalendar(date("2026-01-15"), date("2026-02-15"), weekdays),
			want: OverlapShort,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := c.a.Overlap(c.b)
			if got != c.want {
				t.Errorf("Overlap() = %v, want %v", got, c.want)
			}
		})
	}
}

func TestAddExcludeDaysTightensRange(t *testing.T) {
	var allDays uint8 = dayMonday | dayTuesday | dayWednesday | dayThursday | dayFriday | daySaturday | daySunday

	cal := NewCalendar(date("2017-01-05"), date("2017-01-31"), allDays)
	cal = cal.AddExcludeDays(NewCalendar(date("2017-01-01"), date("2017-01-07"), allDays))
	if cal == nil {
		t.Fatal("expected a non-nil calendar after the first exclusion")
	}
	cal = cal.AddExcludeDays(NewCalendar(date("2017-01-30"), date("2017-02-07"), allDays))
	if cal == nil {
		t.Fatal("expected a non-nil calendar after the second exclusion")
	}

	if !cal.Start.Equal(date("2017-01-08")) {
		t.Errorf("Start = %v, want 2017-01-08", cal.Start)
	}
	if !cal.End.Equal(date("2017-01-29")) {
		t.Errorf("End = %v, want 2017-01-29", cal.End)
	}
	if len(cal.Excludes) != 0 {
		t.Errorf("got %d excludes, want 0 once the boundary days are folded into the range", len(cal.Excludes))
	}
}

func TestAddExcludeDaysEmptiesToNil(t *testing.T) {
	cal := NewCalendar(date("2017-01-01"), date("2017-01-15"), daySunday)
	cal = cal.AddExcludeDays(NewCalendar(date("2017-01-01"), date("2017-01-07"), daySunday))
	if cal == nil {
		t.Fatal("expected a non-nil calendar after the first exclusion")
	}
	if !cal.Start.Equal(date("2017-01-08")) {
		t.Errorf("Start = %v, want 2017-01-08", cal.Start)
	}

	cal = cal.AddExcludeDays(NewCalendar(date("2017-01-08"), date("2017-01-15"), daySunday))
	if cal != nil {
		t.Errorf("expected a fully-overlaid calendar to collapse to nil, got %+v", cal)
	}
}

func TestShiftForwardRotatesMask(t *testing.T) {
	cal := NewCalendar(date("2026-01-05"), date("2026-01-31"), dayMonday)
	shifted := cal.ShiftForward()

	if shifted.Days != dayTuesday {
		t.Errorf("ShiftForward() mask = %08b, want Tuesday bit set", shifted.Days)
	}
	if !shifted.Start.Equal(date("2026-01-06")) {
		t.Errorf("ShiftForward() start = %v, want 2026-01-06", shifted.Start)
	}
}

func TestShiftBackwardIsInverse(t *testing.T) {
	cal := NewCalendar(date("2026-01-05"), date("2026-01-31"), dayWednesday)
	cal.Excludes[date("2026-01-07")] = true

	roundTrip := cal.ShiftForward().ShiftBackward()
	if roundTrip.Days != cal.Days {
		t.Errorf("round trip mask = %08b, want %08b", roundTrip.Days, cal.Days)
	}
	if !roundTrip.Excludes[date("2026-01-07")] {
		t.Error("expected exclusion date to survive the round trip")
	}
}

func TestToCalendarDatesSortedAndRemoved(t *testing.T) {
	cal := NewCalendar(date("2026-01-01"), date("2026-01-31"), daySaturday|daySunday)
	cal.Excludes[date("2026-01-18")] = true
	cal.Excludes[date("2026-01-04")] = true

	rows := cal.ToCalendarDates("svc1")
	if len(rows) != 2 {
		t.Fatalf("got %d calendar_dates rows, want 2", len(rows))
	}
	if !rows[0].Date.Equal(date("2026-01-04")) {
		t.Errorf("rows[0].Date = %v, want 2026-01-04", rows[0].Date)
	}
	if rows[0].ExceptionType != gtfsExceptionRemoved {
		t.Errorf("ExceptionType = %d, want %d", rows[0].ExceptionType, gtfsExceptionRemoved)
	}
}
