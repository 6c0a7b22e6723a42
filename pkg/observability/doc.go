/*
Package observability turns pipeline lifecycle hooks into Prometheus metrics
and structured log lines.

Hooks built here are plain domain.LifecycleHooks values, so they can be
combined and handed to pipeline.WithHooks.
*/
package observability
