package invoker

import (
	"maps"

	"guardiangw/internal/domain"
)

var directoryTreeTools = []string{"directory_tree", "code_directory_tree"}

// argumentDefaults merges the built-in directory tree exclusions with the
// backend's configured defaults. Configured values win per key.
func argumentDefaults(spec domain.BackendSpec, tool string) map[string]any {
	var merged map[string]any
	for _, name := range directoryTreeTools {
		if name == tool {
			merged = map[string]any{"excludePatterns": append([]string(nil), domain.DefaultExcludePatterns...)}
			break
		}
	}
	if configured := spec.ArgumentDefaults[tool]; len(configured) > 0 {
		if merged == nil {
			merged = make(map[string]any, len(configured))
		}
		maps.Copy(merged, configured)
	}
	return merged
}

// applyDefaults returns args with every missing or null default filled in.
// The caller's map is never modified.
func applyDefaults(args map[string]any, defaults map[string]any) map[string]any {
	if len(defaults) == 0 {
		return args
	}
	out := make(map[string]any, len(args)+len(defaults))
	maps.Copy(out, args)
	for key, value := range defaults {
		if existing, ok := out[key]; !ok || existing == nil {
			out[key] = value
		}
	}
	return out
}
