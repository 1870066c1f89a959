package invoker

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"guardiangw/internal/domain"
)

func TestArgumentDefaults(t *testing.T) {
	spec := domain.BackendSpec{ArgumentDefaults: map[string]map[string]any{
		"code_directory_tree": {"excludePatterns": []string{"vendor"}, "depth": 2},
		"search":              {"limit": 10},
	}}

	tests := []struct {
		name string
		tool string
		want map[string]any
	}{
		{name: "built in", tool: "directory_tree", want: map[string]any{"excludePatterns": domain.DefaultExcludePatterns}},
		{name: "configured overrides built in", tool: "code_directory_tree", want: map[string]any{"excludePatterns": []string{"vendor"}, "depth": 2}},
		{name: "configured only", tool: "search", want: map[string]any{"limit": 10}},
		{name: "none", tool: "restart", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, argumentDefaults(spec, tt.tool))
		})
	}
}

func TestApplyDefaults_FillsNull(t *testing.T) {
	out := applyDefaults(map[string]any{"limit": nil}, map[string]any{"limit": 5})
	assert.Equal(t, 5, out["limit"])
}
