package server

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"mercator-hq/pursuit/pkg/history"
)

// RunList is the body of GET /v1/runs.
type RunList struct {
	Runs  []*history.Run `json:"runs"`
	Count int64          `json:"count"`
}

// handleListRuns lists recorded scheduled runs, newest first. Query
// parameters: job, query, status, since, until (RFC 3339), limit, offset.
// Count covers every matching run, not just the returned page.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	f, err := parseRunFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	runs, err := s.history.List(r.Context(), f)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	count, err := s.history.Count(r.Context(), f)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, RunList{Runs: runs, Count: count})
}

func parseRunFilter(q url.Values) (history.Filter, error) {
	f := history.Filter{
		Job:    q.Get("job"),
		Query:  q.Get("query"),
		Status: q.Get("status"),
	}

	for _, p := range []struct {
		name string
		dst  *time.Time
	}{
		{"since", &f.Since},
		{"until", &f.Until},
	} {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, invalidParam(p.name, err)
		}
		*p.dst = t
	}

	for _, p := range []struct {
		name string
		dst  *int
	}{
		{"limit", &f.Limit},
		{"offset", &f.Offset},
	} {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, invalidParam(p.name, err)
		}
		*p.dst = n
	}

	return f, nil
}

func invalidParam(name string, err error) error {
	return &requestError{
		status:  http.StatusBadRequest,
		kind:    ErrorTypeInvalidRequest,
		message: "invalid " + name + " parameter",
		err:     err,
	}
}
