package tracing

import (
	"go.opentelemetry.io/otel/attribute"
)

// Span names.
const (
	SpanCompile = "pursuit.compile"
	SpanFilter  = "pursuit.filter"
	SpanLoad    = "pursuit.records.load"
	SpanReload  = "pursuit.catalog.reload"
)

// Attribute keys use the "pursuit.*" namespace.
const (
	AttrQueryName     = "pursuit.query.name"
	AttrQueryStrategy = "pursuit.query.strategy"
	AttrQueryTests    = "pursuit.query.tests"
	AttrQueryCost     = "pursuit.query.estimated_cost"
	AttrRecordsSource = "pursuit.records.source"
	AttrRecordsTotal  = "pursuit.records.total"
	AttrRecordsMatch  = "pursuit.records.matched"
	AttrFilterMode    = "pursuit.filter.mode"
	AttrRevision      = "pursuit.catalog.revision"
	AttrQueries       = "pursuit.catalog.queries"
	AttrCacheHit      = "pursuit.cache.hit"
	AttrRequestID     = "pursuit.request_id"
)

// QueryAttributes describes a compiled query. name may be empty for ad-hoc
// descriptors.
func QueryAttributes(name, strategy string, tests int, cost float64) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(AttrQueryStrategy, strategy),
		attribute.Int(AttrQueryTests, tests),
		attribute.Float64(AttrQueryCost, cost),
	}
	if name != "" {
		attrs = append(attrs, attribute.String(AttrQueryName, name))
	}
	return attrs
}

// FilterAttributes describes a filtering pass.
func FilterAttributes(mode string, total, matched int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrFilterMode, mode),
		attribute.Int(AttrRecordsTotal, total),
		attribute.Int(AttrRecordsMatch, matched),
	}
}

// CatalogAttributes describes a catalog revision.
func CatalogAttributes(revision string, queries int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrRevision, revision),
		attribute.Int(AttrQueries, queries),
	}
}
