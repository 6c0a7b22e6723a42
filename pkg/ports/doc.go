/*
Package ports defines the driven ports (interfaces) of the brokerage backend.

These interfaces decouple the pipeline and management services from storage,
identity and side-effect delivery, so the same services run against memory,
Redis or SQLite backends.

# Key Interfaces

  - ClientStore: Organization-scoped, versioned persistence for Client records.
  - IdentityContext: Resolves the acting user's display name for timeline attribution.
  - ActionDispatcher: Delivers automated stage actions, best-effort.
  - PipelineLoader: Supplies custom pipeline definitions (YAML, Loam, memory).
  - DistributedLocker: Coordinates per-client critical sections across replicas.
*/
package ports
