package booking

import (
	"fmt"
	"strings"
)

// DOT renders the requested pipeline graph as Graphviz text, for docs and
// the introspection endpoint. An empty mode means local.
func DOT(mode string) (string, error) {
	switch mode {
	case "", ModeLocal:
		return pipelineDOT("local_pipeline",
			[]string{"select_provider", "negotiate_slots", "validate_calendar", "reserve_and_book", "finalize"},
			[][2]string{
				{"select_provider", "negotiate_slots"},
				{"negotiate_slots", "validate_calendar"},
				{"validate_calendar", "reserve_and_book"},
				{"reserve_and_book", "finalize"},
				{"finalize", "end"},
			}), nil
	case ModeAgent:
		return pipelineDOT("agent_pipeline",
			[]string{"listen_user", "extract_preferences", "agent", "tools", "finalize", "create_event", "speak_user"},
			[][2]string{
				{"listen_user", "extract_preferences"},
				{"extract_preferences", "agent"},
				{"agent", "tools"},
				{"tools", "agent"},
				{"agent", "finalize"},
				{"finalize", "create_event"},
				{"create_event", "speak_user"},
				{"speak_user", "end"},
			}), nil
	default:
		return "", fmt.Errorf("unknown workflow mode %q", mode)
	}
}

func pipelineDOT(name string, nodes []string, edges [][2]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "digraph %s {\n", name)
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=box, style=rounded];\n")
	b.WriteString("  end [shape=doublecircle, style=solid];\n")
	for _, n := range nodes {
		fmt.Fprintf(&b, "  %s;\n", n)
	}
	for _, e := range edges {
		fmt.Fprintf(&b, "  %s -> %s;\n", e[0], e[1])
	}
	b.WriteString("}\n")
	return b.String()
}
