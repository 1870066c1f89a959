package catalog

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// envExpander substitutes ${VAR} and ${VAR:-fallback} references in the
// string values of a config document. Keys are never expanded. Unset
// variables are recorded with the config path that referenced them so a
// missing backend secret names the backend field it belongs to.
type envExpander struct {
	lookup  func(string) (string, bool)
	missing map[string][]string
}

func newEnvExpander(lookup func(string) (string, bool)) *envExpander {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return &envExpander{lookup: lookup, missing: make(map[string][]string)}
}

func (e *envExpander) expand(raw []byte) ([]byte, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return raw, nil
	}
	var root yaml.Node
	if err := yaml.Unmarshal(raw, &root); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	e.walk(&root, "")
	out, err := yaml.Marshal(&root)
	if err != nil {
		return nil, fmt.Errorf("encode expanded config: %w", err)
	}
	return out, nil
}

func (e *envExpander) walk(node *yaml.Node, path string) {
	switch node.Kind {
	case yaml.DocumentNode:
		for _, child := range node.Content {
			e.walk(child, path)
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			e.walk(node.Content[i+1], joinPath(path, node.Content[i].Value))
		}
	case yaml.SequenceNode:
		for i, child := range node.Content {
			e.walk(child, fmt.Sprintf("%s[%d]", path, i))
		}
	case yaml.AliasNode:
		if node.Alias != nil {
			e.walk(node.Alias, path)
		}
	case yaml.ScalarNode:
		e.scalar(node, path)
	}
}

func (e *envExpander) scalar(node *yaml.Node, path string) {
	if node.Tag != "" && node.Tag != "!!str" {
		return
	}
	if !strings.Contains(node.Value, "$") {
		return
	}
	expanded := os.Expand(node.Value, func(ref string) string {
		return e.resolve(ref, path)
	})
	if expanded == node.Value {
		return
	}
	node.Value = expanded
	// Quoted values stay strings; plain ones take the type of their value
	// so `maxSteps: ${STEPS}` decodes as a number.
	if node.Style != 0 {
		node.Tag = "!!str"
		return
	}
	node.Tag = plainTag(expanded)
	if node.Tag != "!!str" {
		node.Value = strings.ToLower(strings.TrimSpace(expanded))
	}
}

func (e *envExpander) resolve(ref, path string) string {
	name, fallback, hasFallback := strings.Cut(ref, ":-")
	if value, ok := e.lookup(name); ok && (value != "" || !hasFallback) {
		return value
	}
	if hasFallback {
		return fallback
	}
	e.missing[name] = append(e.missing[name], path)
	return ""
}

// missingVars lists each unset variable once, with the paths using it.
func (e *envExpander) missingVars() []string {
	if len(e.missing) == 0 {
		return nil
	}
	out := make([]string, 0, len(e.missing))
	for name, paths := range e.missing {
		out = append(out, fmt.Sprintf("%s (%s)", name, strings.Join(paths, ", ")))
	}
	sort.Strings(out)
	return out
}

func joinPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}

func plainTag(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "!!str"
	}
	if _, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return "!!int"
	}
	switch strings.ToLower(trimmed) {
	case "true", "false":
		return "!!bool"
	}
	if strings.ContainsAny(trimmed[:1], "0123456789.-+") {
		if _, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return "!!float"
		}
	}
	return "!!str"
}
