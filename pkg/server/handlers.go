package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"mercator-hq/pursuit/pkg/catalog"
	"mercator-hq/pursuit/pkg/compiler"
	"mercator-hq/pursuit/pkg/filter"
	"mercator-hq/pursuit/pkg/telemetry/logging"
	"mercator-hq/pursuit/pkg/telemetry/tracing"
)

// FilterRequest is the body of POST /v1/filter. Query is required for ad-hoc
// filtering and ignored on the named query route.
type FilterRequest struct {
	Query   json.RawMessage `json:"query,omitempty"`
	Records []interface{}   `json:"records"`
	Explain bool            `json:"explain,omitempty"`
}

// FilterResponse is the result of a filter request.
type FilterResponse struct {
	Name     string         `json:"name,omitempty"`
	Revision string         `json:"revision,omitempty"`
	Strategy string         `json:"strategy"`
	Cached   bool           `json:"cached"`
	Total    int            `json:"total"`
	Count    int            `json:"count"`
	Matched  []interface{}  `json:"matched"`
	Plan     *compiler.Plan `json:"plan,omitempty"`
}

// QueryInfo describes one catalog entry.
type QueryInfo struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Source      string         `json:"source"`
	Tests       int            `json:"tests"`
	Descriptor  interface{}    `json:"descriptor,omitempty"`
	Plan        *compiler.Plan `json:"plan,omitempty"`
}

// QueryList is the body of GET /v1/queries.
type QueryList struct {
	Revision string      `json:"revision"`
	LoadedAt time.Time   `json:"loaded_at"`
	Queries  []QueryInfo `json:"queries"`
}

// handleFilter compiles an ad-hoc descriptor and filters the posted records.
func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	var req FilterRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	if len(req.Query) == 0 {
		writeError(w, r, s.logger, &requestError{
			status:  http.StatusBadRequest,
			kind:    ErrorTypeInvalidRequest,
			message: "query is required",
		})
		return
	}

	ctx, span := s.tracer.Start(r.Context(), tracing.SpanCompile)
	q, hit, err := s.cache.get(req.Query)
	if q != nil {
		span.SetAttributes(tracing.QueryAttributes("", q.Strategy(), len(q.Plan().Tests()), q.Plan().Estimate.Cost)...)
	}
	span.SetAttributes(attribute.Bool(tracing.AttrCacheHit, hit))
	tracing.End(span, err)
	if err != nil {
		writeError(w, r.WithContext(ctx), s.logger, err)
		return
	}

	resp, err := s.filter(r.WithContext(ctx), q, req.Records)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	resp.Cached = hit
	if req.Explain {
		resp.Plan = q.Plan()
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleNamedFilter filters the posted records with a catalog query.
func (s *Server) handleNamedFilter(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	var req FilterRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	snap := s.catalog.Snapshot()
	entry, ok := snap.Get(name)
	if !ok {
		writeError(w, r, s.logger, fmt.Errorf("%w: %q", catalog.ErrNotFound, name))
		return
	}

	ctx := logging.WithQuery(r.Context(), name)
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String(tracing.AttrQueryName, name),
		attribute.String(tracing.AttrRevision, snap.Revision),
	)
	resp, err := s.filter(r.WithContext(ctx), entry.Query, req.Records)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	resp.Name = name
	resp.Revision = snap.Revision
	resp.Cached = true
	if req.Explain {
		resp.Plan = entry.Query.Plan()
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleListQueries lists the current catalog revision.
func (s *Server) handleListQueries(w http.ResponseWriter, r *http.Request) {
	snap := s.catalog.Snapshot()
	list := QueryList{
		Revision: snap.Revision,
		LoadedAt: snap.LoadedAt,
		Queries:  make([]QueryInfo, 0, snap.Len()),
	}
	for _, e := range snap.Entries() {
		list.Queries = append(list.Queries, queryInfo(e, false))
	}
	writeJSON(w, http.StatusOK, list)
}

// handleGetQuery describes one catalog query with its descriptor and plan.
func (s *Server) handleGetQuery(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	entry, err := s.catalog.Get(name)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, queryInfo(entry, true))
}

func queryInfo(e *catalog.Entry, detail bool) QueryInfo {
	info := QueryInfo{
		Name:        e.Name,
		Description: e.Description,
		Source:      e.Source,
		Tests:       len(e.Query.Plan().Tests()),
	}
	if detail {
		info.Descriptor = e.Descriptor
		info.Plan = e.Query.Plan()
	}
	return info
}

// filter applies q to records on the pool, or sequentially without one.
func (s *Server) filter(r *http.Request, q *compiler.Query, records []interface{}) (*FilterResponse, error) {
	mode := "sequential"
	if s.pool != nil {
		mode = "parallel"
	}

	ctx, span := s.tracer.Start(r.Context(), tracing.SpanFilter)
	start := time.Now()

	var (
		matched []interface{}
		err     error
	)
	if s.pool != nil {
		matched, err = s.pool.Filter(ctx, records, q.Predicate())
	} else {
		matched = filter.Slice(records, q.Predicate())
	}
	elapsed := time.Since(start)

	span.SetAttributes(tracing.FilterAttributes(mode, len(records), len(matched))...)
	tracing.End(span, err)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordFilter(mode, len(records), len(matched), elapsed)

	if matched == nil {
		matched = []interface{}{}
	}
	return &FilterResponse{
		Strategy: q.Strategy(),
		Total:    len(records),
		Count:    len(matched),
		Matched:  matched,
	}, nil
}

// decode reads a JSON request body limited to MaxBodyBytes.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) error {
	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return err
		}
		if errors.Is(err, io.EOF) {
			return &requestError{status: http.StatusBadRequest, kind: ErrorTypeInvalidRequest, message: "request body is empty"}
		}
		return &requestError{status: http.StatusBadRequest, kind: ErrorTypeInvalidRequest, message: "invalid JSON body", err: err}
	}
	return nil
}
