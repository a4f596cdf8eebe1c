// Package core defines the shared contracts of the StrRay coordination
// framework: the Agent execution interface, the Task unit of work, the
// AgentResult outcome shape, structured telemetry records and the invocation
// limiter. Higher level packages (boot, delegate, migration, bench) depend on
// core; core depends only on logging and the standard library.
package core
