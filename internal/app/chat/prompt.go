package chat

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DefaultSystemPrompt is used when the configuration sets none.
const DefaultSystemPrompt = `You are a design system guardian. You audit design files and source code for consistency with the team's design system, using the connected tools to inspect components, tokens and code before answering. Cite the tool results you relied on. When a tool fails, say so and continue with what you have.`

// BuildSystemPrompt appends the request's host context to the base prompt.
func BuildSystemPrompt(base string, node *SelectedNode, plugin *PluginContext) string {
	var b strings.Builder
	if strings.TrimSpace(base) == "" {
		base = DefaultSystemPrompt
	}
	b.WriteString(strings.TrimSpace(base))

	if node != nil && (node.NodeURL != "" || len(node.Nodes) > 0) {
		b.WriteString("\n\n### SELECTED NODE (from host application, highest priority)")
		if node.NodeURL != "" {
			fmt.Fprintf(&b, "\nThe currently selected node URL: %s", node.NodeURL)
		}
		if len(node.Nodes) > 0 {
			if encoded, err := json.MarshalIndent(node.Nodes, "", "  "); err == nil {
				fmt.Fprintf(&b, "\nSelected node properties:\n```json\n%s\n```", encoded)
			}
		}
		b.WriteString(`
Rules:
- The selection is already known from the data above. Do not call a tool to look up the current selection.
- "This node", "the selection" or "this component" mean the node above.
- Other design tools may be used to inspect the node further through its URL.`)
	}

	if plugin != nil && plugin.FileName != "" {
		b.WriteString("\n\n### PLUGIN CONTEXT (currently open file)")
		fmt.Fprintf(&b, "\n- File name: %q", plugin.FileName)
		if plugin.FileKey != "" {
			fmt.Fprintf(&b, "\n- File key: %q", plugin.FileKey)
		}
		if plugin.FileURL != "" {
			fmt.Fprintf(&b, "\n- File URL: %q", plugin.FileURL)
		}
		if plugin.CurrentPage != nil {
			fmt.Fprintf(&b, "\n- Current page: %q (id: %s)", plugin.CurrentPage.Name, plugin.CurrentPage.ID)
		}
		if len(plugin.Pages) > 0 {
			pages := make([]string, 0, len(plugin.Pages))
			for _, page := range plugin.Pages {
				pages = append(pages, fmt.Sprintf("%q (%s)", page.Name, page.ID))
			}
			fmt.Fprintf(&b, "\n- All pages: %s", strings.Join(pages, ", "))
		}
		if plugin.CurrentUser != nil && plugin.CurrentUser.Name != "" {
			fmt.Fprintf(&b, "\n- User: %s", plugin.CurrentUser.Name)
		}
		if plugin.FileKey != "" {
			b.WriteString(`
Rules:
- Use this file for any tool call that needs a file key or URL when none is given.
- "The current file" or "this file" mean this file; "this page" means the page above.
- Do not ask for the file URL, it is already known.`)
		} else {
			fmt.Fprintf(&b, `
The file has no key (community or unsaved file), so no direct URL is available.
Rules:
- "The current file" or "this file" mean %q.
- To reach it through tools, ask the user to paste the file URL from their browser.`, plugin.FileName)
		}
	}
	return b.String()
}
