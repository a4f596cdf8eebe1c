// Package testutil contains fluent builders shared by package tests. It is
// internal: production code must not depend on it.
package testutil
