/*
Package ports defines the driven ports (interfaces) for the hearth bot.

These interfaces decouple the flow engine from external implementations,
allowing the engine to work with different state backends, chat clients,
and profile backends.

# Key Interfaces

  - StateStore: persists the per-user conversation state record.
  - DistributedLocker: distributed locking for concurrent event handling.
  - Messenger: the narrow chat-platform capability consumed by steps.
  - ProfileStore: the external user/guild/contribution backend.
*/
package ports
