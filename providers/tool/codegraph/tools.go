package codegraph

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"codescout/providers/tool"
)

// Tools returns the full tool surface of the code graph service, in the order
// it is advertised to the model.
func Tools(client *Client) []tool.GenericTool {
	return []tool.GenericTool{
		NewSearchSymbolsTool(client),
		NewSourceCodeTool(client),
		NewDependenciesTool(client),
		NewSubgraphContextTool(client),
		NewMetricsTool(client),
		NewGraphStatsTool(client),
	}
}

// NewSearchSymbolsTool creates the symbol search tool.
func NewSearchSymbolsTool(client *Client) *tool.Tool[SearchInput, string] {
	return tool.NewTool("search_symbols",
		func(ctx context.Context, input SearchInput) (string, error) {
			symbols, err := client.SearchSymbols(ctx, input)
			if err != nil {
				return "", err
			}
			if len(symbols) == 0 {
				return fmt.Sprintf("No symbols found for %q. Try a different query.", input.Query), nil
			}

			parts := []string{fmt.Sprintf("Found %d symbols:", len(symbols))}
			for i, symbol := range symbols {
				location := ""
				if symbol.File != "" {
					location = fmt.Sprintf(" (%s:%d)", symbol.File, symbol.Line)
				}
				parts = append(parts, fmt.Sprintf("%d. [%s] %s %s%s\n   id: %s",
					i+1, symbol.Kind, symbol.Name, symbol.Signature, location, symbol.ID))
			}
			return strings.Join(parts, "\n"), nil
		},
		tool.WithDescription("Search for code symbols (classes, methods, functions) matching the query. Returns matching symbols with their metadata and node IDs for use with other tools."),
	)
}

// NewSourceCodeTool creates the source retrieval tool.
func NewSourceCodeTool(client *Client) *tool.Tool[SourceInput, string] {
	return tool.NewTool("get_source_code",
		func(ctx context.Context, input SourceInput) (string, error) {
			return client.SourceCode(ctx, input)
		},
		tool.WithDescription("Get the source code for a specific node. Pass a node_id obtained from search results; context_padding controls how many surrounding lines are included."),
	)
}

// NewDependenciesTool creates the dependency traversal tool.
func NewDependenciesTool(client *Client) *tool.Tool[DependenciesInput, string] {
	return tool.NewTool("get_dependencies",
		func(ctx context.Context, input DependenciesInput) (string, error) {
			dependencies, err := client.Dependencies(ctx, input)
			if err != nil {
				return "", err
			}
			direction := input.Direction
			if direction == "" {
				direction = "outgoing"
			}
			if len(dependencies) == 0 {
				return fmt.Sprintf("No %s dependencies for node %s.", direction, input.NodeID), nil
			}

			parts := []string{fmt.Sprintf("%d %s dependencies of %s:", len(dependencies), direction, input.NodeID)}
			for i, dependency := range dependencies {
				parts = append(parts, fmt.Sprintf("%d. [%s] %s (%s)\n   id: %s",
					i+1, dependency.Kind, dependency.Name, dependency.Relation, dependency.ID))
			}
			return strings.Join(parts, "\n"), nil
		},
		tool.WithDescription("List the dependencies of a node. Direction 'outgoing' shows what the node depends on; 'incoming' shows what depends on it."),
	)
}

// NewSubgraphContextTool creates the neighbourhood context tool.
func NewSubgraphContextTool(client *Client) *tool.Tool[ContextInput, string] {
	return tool.NewTool("get_subgraph_context",
		func(ctx context.Context, input ContextInput) (string, error) {
			return client.SubgraphContext(ctx, input)
		},
		tool.WithDescription("Get a human-readable context subgraph around the specified nodes, expanded by the given number of graph hops."),
	)
}

// NewMetricsTool creates the hotspot ranking tool.
func NewMetricsTool(client *Client) *tool.Tool[MetricsInput, string] {
	return tool.NewTool("get_metrics",
		func(ctx context.Context, input MetricsInput) (string, error) {
			hotspots, err := client.Metrics(ctx, input)
			if err != nil {
				return "", err
			}
			sortBy := input.SortBy
			if sortBy == "" {
				sortBy = "complexity"
			}
			if len(hotspots) == 0 {
				return fmt.Sprintf("No metrics available for %s.", sortBy), nil
			}

			parts := []string{fmt.Sprintf("Top %d nodes by %s:", len(hotspots), sortBy)}
			for i, hotspot := range hotspots {
				location := ""
				if hotspot.File != "" {
					location = " in " + hotspot.File
				}
				parts = append(parts, fmt.Sprintf("%d. %s: %.2f%s\n   id: %s",
					i+1, hotspot.Name, hotspot.Value, location, hotspot.ID))
			}
			return strings.Join(parts, "\n"), nil
		},
		tool.WithDescription("Rank nodes by a code metric (complexity, lines of code, fan-in, fan-out) to find hotspots worth inspecting."),
	)
}

// NewGraphStatsTool creates the whole-graph statistics tool.
func NewGraphStatsTool(client *Client) *tool.Tool[StatsInput, string] {
	return tool.NewTool("get_graph_stats",
		func(ctx context.Context, _ StatsInput) (string, error) {
			stats, err := client.GraphStats(ctx)
			if err != nil {
				return "", err
			}

			summary := fmt.Sprintf("Code graph: %d nodes, %d edges", stats.Nodes, stats.Edges)
			if stats.Files > 0 {
				summary += fmt.Sprintf(", %d files", stats.Files)
			}
			if len(stats.Kinds) > 0 {
				kinds := make([]string, 0, len(stats.Kinds))
				for kind, count := range stats.Kinds {
					kinds = append(kinds, fmt.Sprintf("%s=%d", kind, count))
				}
				sort.Strings(kinds)
				summary += "\nNode kinds: " + strings.Join(kinds, ", ")
			}
			return summary, nil
		},
		tool.WithDescription("Get statistics about the code graph, including node and edge counts."),
	)
}
