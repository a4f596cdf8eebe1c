// Package delegate routes units of work to execution agents. The delegator
// scores a request's complexity, derives a delegation plan (strategy, agent
// set, priorities) and executes it: a single agent call, a bounded concurrent
// fan-out, or an orchestrator-led decomposition into dependency-ordered
// sub-tasks. Individual agent failures never abort siblings; every execution
// resolves with partial results plus an error list instead of panicking or
// returning an error.
package delegate
