package analytics

import "sort"

// FlowNode is one named node in the Sankey graph.
type FlowNode struct {
	Name string `json:"name"`
}

// FlowLink is one aggregated edge in the Sankey graph.
type FlowLink struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Value  int    `json:"value"`
}

// FlowGraph is the ECharts-shaped Sankey payload. Nodes and links come out
// sorted so repeated runs over the same input serialize identically.
type FlowGraph struct {
	Nodes []FlowNode `json:"nodes"`
	Links []FlowLink `json:"links"`
}

type linkKey struct {
	source string
	target string
}

// BuildFlowGraph turns per-session paths into a weighted directed graph over
// at most three navigation steps. Stage suffixes keep source nodes and page
// nodes from colliding even when their names match. Internal first-touch
// sessions contribute no source link; identical consecutive categories are
// suppressed at the step stages only.
func BuildFlowGraph(paths map[string]SessionPath) FlowGraph {
	counts := make(map[linkKey]int)

	for _, path := range paths {
		if len(path.Categories) == 0 {
			continue
		}

		if path.FirstSource != InternalLabel {
			counts[linkKey{
				source: path.FirstSource + " (Source)",
				target: path.Categories[0] + " (Step 1)",
			}]++
		}

		if len(path.Categories) >= 2 && path.Categories[0] != path.Categories[1] {
			counts[linkKey{
				source: path.Categories[0] + " (Step 1)",
				target: path.Categories[1] + " (Step 2)",
			}]++
		}

		if len(path.Categories) >= 3 && path.Categories[1] != path.Categories[2] {
			counts[linkKey{
				source: path.Categories[1] + " (Step 2)",
				target: path.Categories[2] + " (Step 3)",
			}]++
		}
	}

	graph := FlowGraph{
		Nodes: []FlowNode{},
		Links: make([]FlowLink, 0, len(counts)),
	}

	nodeSet := make(map[string]struct{})
	for key, count := range counts {
		nodeSet[key.source] = struct{}{}
		nodeSet[key.target] = struct{}{}
		graph.Links = append(graph.Links, FlowLink{
			Source: key.source,
			Target: key.target,
			Value:  count,
		})
	}

	sort.Slice(graph.Links, func(i, j int) bool {
		if graph.Links[i].Source != graph.Links[j].Source {
			return graph.Links[i].Source < graph.Links[j].Source
		}
		return graph.Links[i].Target < graph.Links[j].Target
	})

	for name := range nodeSet {
		graph.Nodes = append(graph.Nodes, FlowNode{Name: name})
	}
	sort.Slice(graph.Nodes, func(i, j int) bool {
		return graph.Nodes[i].Name < graph.Nodes[j].Name
	})

	return graph
}
