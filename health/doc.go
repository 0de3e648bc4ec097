// Package health aggregates component health into a single system status
// served over the metrics endpoint.
//
// Each component reports its own component.HealthStatus; the Monitor
// collects these under component names and rolls them up:
//
//   - all healthy            -> healthy
//   - any unhealthy          -> unhealthy
//   - none unhealthy, some
//     degraded               -> degraded
//
// Error messages are sanitized before leaving the process: URLs, file
// paths, addresses, and anything that looks like a credential are masked,
// since /health is commonly scraped by infrastructure that logs responses.
package health
