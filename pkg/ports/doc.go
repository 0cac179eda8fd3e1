/*
Package ports defines the driven ports (interfaces) for the Concord engine.

These interfaces decouple the reconciliation core from the catalog, the
preference capture storage and the result display, allowing the engine to work
with various backends.

# Key Interfaces

  - CatalogLoader: Supplies templates and their clause groups (e.g., from Loam, files or memory).
  - PreferenceStore: Persists versioned party submissions.
  - ResultSink: Receives recomputed template results for display.
  - DistributedLocker: Serializes submissions to a template across service replicas.
  - Reconciler: The engine surface consumed by host adapters (HTTP, MCP, CLI).
*/
package ports
