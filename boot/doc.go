// Package boot sequences subsystem activation in dependency order. The
// orchestrator drives an explicit, strictly sequential phase list with a
// terminal booted or aborted state: state store initialization is fatal on
// failure, every other phase failure is recorded and skipped so the sequence
// always completes with a Result. Memory monitoring observes the sequence
// without ever blocking it.
package boot
