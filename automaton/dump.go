package automaton

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// Dump writes a human-readable listing of the graph: every unit with its
// exits, then every state with its action and transition table.
// The format is meant for debugging and may change.
func (g *Graph) Dump(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 1, ' ', 0)

	title := g.name
	if title == "" {
		title = "graph"
	}
	mode := "full"
	if g.partial {
		mode = "partial"
	}
	fmt.Fprintf(tw, "%s (%s): %d units, %d states, start %d, accept %d, reject %d\n",
		title, mode, len(g.units), len(g.states), g.start, g.accept, g.reject)

	fmt.Fprintln(tw, "\nunit\tstart\tsuccess\tfailure\tlabel")
	for i := range g.units {
		u := &g.units[i]
		root := ""
		if u.id == g.root {
			root = " (root)"
		}
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%s%s\n", u.id, u.start, u.success, u.failure, u.label, root)
	}

	fmt.Fprintln(tw, "\nstate\tunit\taction\tframe\ttransitions")
	for i := range g.states {
		s := &g.states[i]
		frame := "-"
		if s.frame != InvalidUnit {
			frame = fmt.Sprintf("%d", s.frame)
		}
		action := s.action.String()
		if s.terminal {
			action += " (terminal)"
		}
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t", s.id, s.unit, action, frame)
		for j, t := range s.Transitions() {
			if j > 0 {
				fmt.Fprint(tw, " ")
			}
			fmt.Fprintf(tw, "%s->%d", t.Key, t.Next)
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}
