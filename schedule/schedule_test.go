package schedule

import (
	"testing"
	"time"
)

// mustDaily and mustWeekly fail the test on construction errors.
func mustDaily(t *testing.T, hour int) Schedule {
	t.Helper()
	s, err := Daily(hour)
	if err != nil {
		t.Fatalf("Daily(%d): %v", hour, err)
	}
	return s
}

func mustWeekly(t *testing.T, day string, hour int) Schedule {
	t.Helper()
	s, err := Weekly(day, hour)
	if err != nil {
		t.Fatalf("Weekly(%q, %d): %v", day, hour, err)
	}
	return s
}

// at builds a time on a known Monday (2025-09-01 was a Monday).
func at(day time.Weekday, hour, minute int) time.Time {
	base := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC) // Monday
	return base.AddDate(0, 0, int(day-time.Monday)).
		Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func TestAlways(t *testing.T) {
	s := Always()
	if !s.ShouldRunAt(at(time.Wednesday, 13, 37)) {
		t.Fatal("Always should run at any time")
	}
}

func TestHourly(t *testing.T) {
	s := Hourly()
	if !s.ShouldRunAt(at(time.Monday, 14, 0)) {
		t.Fatal("Hourly should run at the top of the hour")
	}
	if s.ShouldRunAt(at(time.Monday, 14, 30)) {
		t.Fatal("Hourly should not run mid-hour")
	}
}

func TestDaily(t *testing.T) {
	s := mustDaily(t, 9)
	cases := []struct {
		at   time.Time
		want bool
	}{
		{at(time.Monday, 9, 0), true},
		{at(time.Friday, 9, 0), true},
		{at(time.Monday, 9, 1), false},
		{at(time.Monday, 10, 0), false},
	}
	for _, c := range cases {
		if got := s.ShouldRunAt(c.at); got != c.want {
			t.Fatalf("Daily(9).ShouldRunAt(%v) = %v, want %v", c.at, got, c.want)
		}
	}
}

func TestDaily_InvalidHour(t *testing.T) {
	if _, err := Daily(24); err == nil {
		t.Fatal("expected error for hour 24")
	}
	if _, err := Daily(-1); err == nil {
		t.Fatal("expected error for hour -1")
	}
}

func TestWeekly(t *testing.T) {
	s := mustWeekly(t, "Monday", 9)
	if !s.ShouldRunAt(at(time.Monday, 9, 0)) {
		t.Fatal("Weekly(monday, 9) should run Monday 09:00")
	}
	if s.ShouldRunAt(at(time.Tuesday, 9, 0)) {
		t.Fatal("Weekly(monday, 9) should not run Tuesday")
	}

	// Weekly(monday, 9) == Daily(9) restricted to Mondays.
	daily := mustDaily(t, 9)
	for day := time.Sunday; day <= time.Saturday; day++ {
		ts := at(day, 9, 0)
		want := daily.ShouldRunAt(ts) && day == time.Monday
		if got := s.ShouldRunAt(ts); got != want {
			t.Fatalf("Weekly vs Daily mismatch on %v: got %v, want %v", day, got, want)
		}
	}
}

func TestWeekly_InvalidArguments(t *testing.T) {
	if _, err := Weekly("mondag", 9); err == nil {
		t.Fatal("expected error for an unknown day name")
	}
	if _, err := Weekly("monday", 25); err == nil {
		t.Fatal("expected error for an out-of-range hour")
	}
}

func TestRoundsDownToMinute(t *testing.T) {
	s := Hourly()
	// 14:00:59 rounds down to 14:00.
	ts := at(time.Monday, 14, 0).Add(59 * time.Second)
	if !s.ShouldRunAt(ts) {
		t.Fatal("evaluation should round the time down to the minute")
	}
}

func TestUnionAndExcept(t *testing.T) {
	nine := mustDaily(t, 9)
	seventeen := mustDaily(t, 17)
	monday := mustWeekly(t, "monday", 9)

	union := nine.Union(seventeen)
	except := nine.Except(monday)

	samples := []time.Time{
		at(time.Monday, 9, 0),
		at(time.Tuesday, 9, 0),
		at(time.Monday, 17, 0),
		at(time.Monday, 12, 30),
		at(time.Sunday, 9, 0),
	}
	for _, ts := range samples {
		if got, want := union.ShouldRunAt(ts), nine.ShouldRunAt(ts) || seventeen.ShouldRunAt(ts); got != want {
			t.Fatalf("union mismatch at %v: got %v, want %v", ts, got, want)
		}
		if got, want := except.ShouldRunAt(ts), nine.ShouldRunAt(ts) && !monday.ShouldRunAt(ts); got != want {
			t.Fatalf("except mismatch at %v: got %v, want %v", ts, got, want)
		}
	}
}

func TestZeroScheduleNeverRuns(t *testing.T) {
	var s Schedule
	if s.ShouldRunAt(at(time.Monday, 9, 0)) {
		t.Fatal("the zero Schedule must never run")
	}
}

func TestCombinatorsWithZeroSchedule(t *testing.T) {
	var zero Schedule
	nine := mustDaily(t, 9)
	ts := at(time.Monday, 9, 0)

	if !nine.Union(zero).ShouldRunAt(ts) {
		t.Fatal("union with the zero Schedule must behave like the other side")
	}
	if zero.Union(nine).ShouldRunAt(at(time.Monday, 10, 0)) {
		t.Fatal("union with the zero Schedule must not invent runs")
	}
	if !nine.Except(zero).ShouldRunAt(ts) {
		t.Fatal("excepting the zero Schedule must remove nothing")
	}
	if zero.Except(nine).ShouldRunAt(ts) {
		t.Fatal("the zero Schedule minus anything must never run")
	}
}
