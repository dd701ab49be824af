package controller

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"pmwatch/internal/trend"
)

const defaultRangeDays = 7

var (
	errInvalidDate  = errors.New("invalid date (expected YYYY-MM-DD)")
	errRangeTooLong = errors.New("date range is too long")
)

// parseRangeQuery reads start and end from the query. Missing values default
// to the last seven days ending today.
func parseRangeQuery(r *http.Request, now time.Time, maxDays int) (start, end time.Time, err error) {
	q := r.URL.Query()
	loc := now.Location()

	end = trend.Day(now)
	if s := q.Get("end"); s != "" {
		end, err = time.ParseInLocation(time.DateOnly, s, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("'end': %w", errInvalidDate)
		}
	}

	start = end.AddDate(0, 0, -(defaultRangeDays - 1))
	if s := q.Get("start"); s != "" {
		start, err = time.ParseInLocation(time.DateOnly, s, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("'start': %w", errInvalidDate)
		}
	}

	if err := trend.ValidateRange(start, end); err != nil {
		return start, end, err
	}
	if days := rangeDays(start, end); maxDays > 0 && days > maxDays {
		return start, end, fmt.Errorf("%w: %d days requested, at most %d allowed", errRangeTooLong, days, maxDays)
	}
	return start, end, nil
}

// rangeDays counts calendar days from start to end inclusive.
func rangeDays(start, end time.Time) int {
	s, e := trend.Day(start), trend.Day(end)
	y1, m1, d1 := s.Date()
	y2, m2, d2 := e.Date()
	a := time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)
	b := time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a)/(24*time.Hour)) + 1
}

func rangeQuery(start, end time.Time) string {
	return fmt.Sprintf("start=%s&end=%s", start.Format(time.DateOnly), end.Format(time.DateOnly))
}
