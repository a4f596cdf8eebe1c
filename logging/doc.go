// Package logging provides a tiny abstraction over slog so downstream code
// can depend on a minimal interface (Logger) while allowing users to plug any
// structured logger. It also offers a richer StrRayLogger with contextual
// helpers (session, job, component) and domain specific logging helpers for
// boot phases, delegations and migrations.
package logging
