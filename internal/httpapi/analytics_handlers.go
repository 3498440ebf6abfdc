package httpapi

import (
	"net/http"
	"strings"
	"time"
)

func (a *API) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	current, r, ok := a.requireAgent(w, r)
	if !ok {
		return
	}

	from, to, err := parseDateRange(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	dashboard, err := a.apps.Dashboard(r.Context(), current.ID, from, to)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboard)
}

func (a *API) handleSubmissions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	current, r, ok := a.requireAgent(w, r)
	if !ok {
		return
	}

	from, to, err := parseDateRange(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	buckets, err := a.apps.WeeklySubmissions(r.Context(), current.ID, from, to)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, buckets)
}

// parseDateRange reads the optional start_date/end_date query
// parameters. Each is independently optional and accepts RFC 3339 or a
// bare date; a lone bound filters the counts on one side only.
func parseDateRange(r *http.Request) (*time.Time, *time.Time, error) {
	from, err := parseDateParam(r.URL.Query().Get("start_date"))
	if err != nil {
		return nil, nil, err
	}
	to, err := parseDateParam(r.URL.Query().Get("end_date"))
	if err != nil {
		return nil, nil, err
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, nil, errReversedBounds
	}
	return from, to, nil
}

var errReversedBounds = dateError("end_date must not precede start_date")

type dateError string

func (e dateError) Error() string { return string(e) }

func parseDateParam(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		utc := t.UTC()
		return &utc, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		utc := t.UTC()
		return &utc, nil
	}
	return nil, dateError("invalid date " + raw + ", use RFC 3339 or YYYY-MM-DD")
}
