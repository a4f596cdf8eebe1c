// Package complexity converts raw operation context into quantitative metrics
// and a composite score that drives the delegation strategy. Analysis is a
// pure function of its inputs; scoring reads a Scorer's weights and threshold
// configuration, which callers mutate only through explicit APIs.
package complexity

import (
	"strings"
	"unicode"
)

// OperationType classifies the kind of work an operation represents.
type OperationType string

const (
	// OpCreate builds new modules or features.
	OpCreate OperationType = "create"
	// OpModify changes existing behavior; the default classification.
	OpModify OperationType = "modify"
	// OpRefactor restructures code without changing behavior.
	OpRefactor OperationType = "refactor"
	// OpAnalyze inspects or audits without mutation.
	OpAnalyze OperationType = "analyze"
	// OpDebug tracks down and fixes defects.
	OpDebug OperationType = "debug"
	// OpTest adds or repairs test coverage.
	OpTest OperationType = "test"
)

// RiskLevel grades the blast radius of an operation.
type RiskLevel string

const (
	// RiskLow is the baseline risk grade.
	RiskLow RiskLevel = "low"
	// RiskMedium marks moderately sized changes.
	RiskMedium RiskLevel = "medium"
	// RiskHigh marks large or widely coupled changes.
	RiskHigh RiskLevel = "high"
	// RiskCritical is reserved for operations touching sensitive areas
	// regardless of size.
	RiskCritical RiskLevel = "critical"
)

// FileChange describes one file referenced by the operation context.
type FileChange struct {
	Path    string   `json:"path"`
	Added   int      `json:"added"`
	Removed int      `json:"removed"`
	Modules []string `json:"modules,omitempty"`
}

// OperationContext is the explicit, tagged input to the analyzer. Callers
// validate it at the boundary; the analyzer treats absent slices as empty.
type OperationContext struct {
	Files    []FileChange      `json:"files,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Metrics are the quantitative facts derived from an operation. Immutable
// once computed.
type Metrics struct {
	FileCount         int           `json:"file_count"`
	ChangeVolume      int           `json:"change_volume"`
	OperationType     OperationType `json:"operation_type"`
	Dependencies      int           `json:"dependencies"`
	RiskLevel         RiskLevel     `json:"risk_level"`
	EstimatedDuration float64       `json:"estimated_duration"` // minutes
}

// maxDependencyScan caps the transitive module count to avoid unbounded scans.
const maxDependencyScan = 25

// keywordCategories are checked in priority order; the first category with a
// keyword appearing as a whole word in the description wins. Operations
// matching nothing default to modify.
var keywordCategories = []struct {
	op       OperationType
	keywords []string
}{
	{OpTest, []string{"test", "coverage", "spec"}},
	{OpDebug, []string{"debug", "bug", "fix", "crash", "regression"}},
	{OpRefactor, []string{"refactor", "restructure", "cleanup", "consolidate"}},
	{OpAnalyze, []string{"analyze", "analyse", "review", "audit", "investigate"}},
	{OpCreate, []string{"create", "add", "new", "implement", "build"}},
}

// sensitiveAreas mark paths whose modification is always critical risk.
var sensitiveAreas = []string{"security", "auth", "state", "migration", "codex"}

// Analyze derives Metrics from an operation description and its context. It
// is a pure function: no side effects and no shared-state reads.
func Analyze(description string, opCtx OperationContext) Metrics {
	opType := classify(description)

	fileCount := 0
	changeVolume := 0
	seen := map[string]struct{}{}
	modules := map[string]struct{}{}
	sensitive := false

	for _, f := range opCtx.Files {
		if _, dup := seen[f.Path]; dup || f.Path == "" {
			continue
		}
		seen[f.Path] = struct{}{}
		fileCount++
		if f.Added > 0 {
			changeVolume += f.Added
		}
		if f.Removed > 0 {
			changeVolume += f.Removed
		}
		for _, m := range f.Modules {
			if len(modules) >= maxDependencyScan {
				break
			}
			modules[m] = struct{}{}
		}
		if isSensitivePath(f.Path) {
			sensitive = true
		}
	}

	deps := len(modules)

	return Metrics{
		FileCount:         fileCount,
		ChangeVolume:      changeVolume,
		OperationType:     opType,
		Dependencies:      deps,
		RiskLevel:         gradeRisk(fileCount, changeVolume, deps, sensitive),
		EstimatedDuration: estimateDuration(opType, fileCount, changeVolume),
	}
}

// classify matches keywords against whole words only, so "address" never
// reads as "add" and "renewal" never reads as "new".
func classify(description string) OperationType {
	words := map[string]struct{}{}
	fields := strings.FieldsFunc(strings.ToLower(description), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range fields {
		words[w] = struct{}{}
	}

	for _, cat := range keywordCategories {
		for _, kw := range cat.keywords {
			if _, ok := words[kw]; ok {
				return cat.op
			}
		}
	}
	return OpModify
}

func isSensitivePath(path string) bool {
	p := strings.ToLower(path)
	for _, area := range sensitiveAreas {
		if strings.Contains(p, area) {
			return true
		}
	}
	return false
}

// gradeRisk escalates with change volume, dependency count and file count.
// Sensitive paths short-circuit to critical.
func gradeRisk(files, volume, deps int, sensitive bool) RiskLevel {
	if sensitive {
		return RiskCritical
	}
	if volume > 500 || deps > 10 || files > 20 {
		return RiskHigh
	}
	if volume > 100 || deps > 3 || files > 5 {
		return RiskMedium
	}
	return RiskLow
}

// operationWeight orders operation types by intrinsic effort.
var operationWeight = map[OperationType]float64{
	OpAnalyze:  1,
	OpTest:     2,
	OpModify:   3,
	OpDebug:    4,
	OpCreate:   5,
	OpRefactor: 6,
}

// estimateDuration grows monotonically with file count, change volume and the
// operation type weight. Unit: minutes.
func estimateDuration(op OperationType, files, volume int) float64 {
	return operationWeight[op]*5 + float64(files)*2 + float64(volume)*0.05
}
