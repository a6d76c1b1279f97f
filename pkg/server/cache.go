package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"mercator-hq/pursuit/pkg/compiler"
	"mercator-hq/pursuit/pkg/descriptor"
	"mercator-hq/pursuit/pkg/telemetry/metrics"
)

const cacheName = "queries"

// queryCache compiles ad-hoc descriptors, keeping the most recently used
// compiled queries. Keys are the compacted JSON text of the descriptor, so
// two descriptors differing only in key order are distinct entries.
type queryCache struct {
	compiler *compiler.Compiler
	lru      *lru.Cache[string, *compiler.Query]
	metrics  *metrics.Collector
}

// newQueryCache creates a cache holding up to size queries. A size of zero or
// less compiles every request.
func newQueryCache(c *compiler.Compiler, size int, m *metrics.Collector) (*queryCache, error) {
	qc := &queryCache{compiler: c, metrics: m}
	if size <= 0 {
		return qc, nil
	}

	cache, err := lru.NewWithEvict(size, func(string, *compiler.Query) {
		m.RecordCacheEviction(cacheName)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create query cache: %w", err)
	}
	qc.lru = cache
	return qc, nil
}

// get returns the compiled query for raw, compiling it on a miss. hit
// reports whether the query came from the cache.
func (qc *queryCache) get(raw json.RawMessage) (q *compiler.Query, hit bool, err error) {
	var key bytes.Buffer
	if err := json.Compact(&key, raw); err != nil {
		return nil, false, &requestError{status: http.StatusBadRequest, kind: ErrorTypeInvalidRequest, message: "query is not valid JSON", err: err}
	}

	if qc.lru != nil {
		if q, ok := qc.lru.Get(key.String()); ok {
			qc.metrics.RecordCacheHit(cacheName)
			return q, true, nil
		}
		qc.metrics.RecordCacheMiss(cacheName)
	}

	desc, err := descriptor.ParseJSON(key.Bytes())
	if err != nil {
		return nil, false, &requestError{status: http.StatusBadRequest, kind: ErrorTypeInvalidRequest, message: "query is not valid JSON", err: err}
	}

	start := time.Now()
	q, err = qc.compiler.Compile(desc)
	qc.metrics.RecordCompile(qc.compiler.Strategy(), time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	if qc.lru != nil {
		qc.lru.Add(key.String(), q)
		qc.metrics.UpdateCacheSize(cacheName, qc.lru.Len())
	}
	return q, false, nil
}

// len returns the number of cached queries.
func (qc *queryCache) len() int {
	if qc.lru == nil {
		return 0
	}
	return qc.lru.Len()
}
