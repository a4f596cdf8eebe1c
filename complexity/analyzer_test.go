package complexity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalyze_EmptyContext(t *testing.T) {
	m := Analyze("adjust formatting", OperationContext{})

	assert.Equal(t, 0, m.FileCount)
	assert.Equal(t, 0, m.ChangeVolume)
	assert.Equal(t, 0, m.Dependencies)
	assert.Equal(t, OpModify, m.OperationType)
	assert.Equal(t, RiskLow, m.RiskLevel)
	assert.Greater(t, m.EstimatedDuration, 0.0)
}

func TestAnalyze_KeywordPriorityOrder(t *testing.T) {
	tests := []struct {
		description string
		want        OperationType
	}{
		{"add test coverage for the new parser", OpTest}, // test wins over create
		{"fix a crash in the refactor tooling", OpDebug}, // debug wins over refactor
		{"refactor the session layer", OpRefactor},
		{"audit dependency usage", OpAnalyze},
		{"implement a new cache", OpCreate},
		{"rename internal helpers", OpModify}, // no category matches
	}
	for _, tt := range tests {
		m := Analyze(tt.description, OperationContext{})
		assert.Equalf(t, tt.want, m.OperationType, "description %q", tt.description)
	}
}

func TestAnalyze_KeywordsMatchWholeWordsOnly(t *testing.T) {
	tests := []struct {
		description string
		want        OperationType
	}{
		{"address the feedback", OpModify},  // "address" is not "add"
		{"renewal flow handling", OpModify}, // "renewal" is not "new"
		{"protest the latest changes", OpModify},
		{"add a health endpoint", OpCreate},
		{"Fix the flaky retry, then re-test", OpTest}, // punctuation splits words
	}
	for _, tt := range tests {
		m := Analyze(tt.description, OperationContext{})
		assert.Equalf(t, tt.want, m.OperationType, "description %q", tt.description)
	}
}

func TestAnalyze_CountsDistinctFilesAndVolume(t *testing.T) {
	ctx := OperationContext{Files: []FileChange{
		{Path: "a.go", Added: 10, Removed: 5, Modules: []string{"core", "state"}},
		{Path: "b.go", Added: 20, Modules: []string{"core"}},
		{Path: "a.go", Added: 99}, // duplicate path ignored
	}}

	m := Analyze("modify handlers", ctx)
	assert.Equal(t, 2, m.FileCount)
	assert.Equal(t, 35, m.ChangeVolume)
	assert.Equal(t, 2, m.Dependencies)
}

func TestAnalyze_DependencyScanCapped(t *testing.T) {
	files := make([]FileChange, 0, 40)
	for i := 0; i < 40; i++ {
		files = append(files, FileChange{
			Path:    string(rune('a'+i%26)) + string(rune('0'+i/26)) + ".go",
			Modules: []string{string(rune('A' + i))},
		})
	}

	m := Analyze("modify everything", OperationContext{Files: files})
	assert.LessOrEqual(t, m.Dependencies, maxDependencyScan)
}

func TestAnalyze_RiskEscalation(t *testing.T) {
	low := Analyze("modify", OperationContext{Files: []FileChange{{Path: "a.go", Added: 5}}})
	assert.Equal(t, RiskLow, low.RiskLevel)

	medium := Analyze("modify", OperationContext{Files: []FileChange{{Path: "a.go", Added: 150}}})
	assert.Equal(t, RiskMedium, medium.RiskLevel)

	high := Analyze("modify", OperationContext{Files: []FileChange{{Path: "a.go", Added: 600}}})
	assert.Equal(t, RiskHigh, high.RiskLevel)
}

func TestAnalyze_SensitivePathIsCriticalRegardlessOfSize(t *testing.T) {
	m := Analyze("modify", OperationContext{Files: []FileChange{{Path: "internal/security/token.go", Added: 1}}})
	assert.Equal(t, RiskCritical, m.RiskLevel)
}

func TestAnalyze_DurationMonotonicInVolume(t *testing.T) {
	small := Analyze("modify", OperationContext{Files: []FileChange{{Path: "a.go", Added: 10}}})
	large := Analyze("modify", OperationContext{Files: []FileChange{{Path: "a.go", Added: 400}}})
	assert.Greater(t, large.EstimatedDuration, small.EstimatedDuration)
}
