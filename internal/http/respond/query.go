package respond

import (
	"fmt"
	"net/http"
	"time"
)

// DateRange reads the optional start_date and end_date query parameters.
// The end date covers its whole day.
func DateRange(r *http.Request) (*time.Time, *time.Time, error) {
	var start, end *time.Time

	if s := r.URL.Query().Get("start_date"); s != "" {
		t, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid start_date %q, expected YYYY-MM-DD", s)
		}

		start = new(t)
	}

	if s := r.URL.Query().Get("end_date"); s != "" {
		t, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid end_date %q, expected YYYY-MM-DD", s)
		}

		end = new(t.Add(24*time.Hour - time.Millisecond))
	}

	return start, end, nil
}
