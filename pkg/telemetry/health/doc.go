// Package health provides liveness, readiness and version endpoints for the
// Pursuit HTTP API.
//
// Liveness answers 200 while the process serves HTTP. Readiness runs every
// registered check concurrently, each bounded by the check timeout, and
// answers 503 if any of them fails. The serve command registers:
//
//   - catalog: the query catalog has a loaded revision
//   - scheduler: the cron scheduler is running (only when jobs are configured)
//
// Usage:
//
//	checker := health.New(cfg.Telemetry.Health.CheckTimeout)
//	checker.RegisterCheck("catalog", health.CatalogCheck(cat))
//	mux.Handle("GET /ready", checker.ReadinessHandler())
package health
