/*
Package ports defines the driven ports (interfaces) for the adwizard service.

These interfaces decouple the wizard from external implementations, allowing
it to work with various storage backends, template sources, generation services
and notification channels.

# Key Interfaces

  - SessionStore: Responsible for persisting and loading wizard Sessions.
  - DistributedLocker: Provides distributed locking for concurrent session access.
  - TemplateCatalog: Resolves templates by id (built-in, YAML, Loam).
  - Generator: The external creative-generation collaborator.
  - Analyzer: Product ingestion for pasted links.
  - Notifier: Sound and native notifications.
  - KeyValueStore: Small persisted flags and preferences.
*/
package ports
