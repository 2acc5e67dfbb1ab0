package codegraph

// SearchInput represents the input parameters for symbol search.
// Query is required; Limit defaults server-side to 10.
type SearchInput struct {
	Query string `json:"query" jsonschema:"description=Search query string (e.g. cache manager or parse json),required"`
	Limit int    `json:"limit,omitempty" jsonschema:"description=Maximum number of results to return (default: 10)"`
}

// SourceInput identifies a node whose source should be fetched.
type SourceInput struct {
	NodeID         string `json:"node_id" jsonschema:"description=The unique identifier of the node (from search results),required"`
	ContextPadding int    `json:"context_padding,omitempty" jsonschema:"description=Number of lines before/after to include (default: 3)"`
}

// DependenciesInput selects a node and a traversal direction.
type DependenciesInput struct {
	NodeID    string `json:"node_id" jsonschema:"description=The unique identifier of the node to traverse from,required"`
	Direction string `json:"direction,omitempty" jsonschema:"description=Traversal direction: outgoing lists what the node depends on; incoming lists what depends on it (default: outgoing),enum=incoming,enum=outgoing"`
}

// ContextInput selects the nodes a context subgraph is centred on.
type ContextInput struct {
	NodeIDs []string `json:"node_ids" jsonschema:"description=List of node IDs to center the subgraph around,required"`
	Hops    int      `json:"hops,omitempty" jsonschema:"description=Number of graph hops to expand (default: 1)"`
}

// MetricsInput selects a ranking metric for the hotspot listing.
type MetricsInput struct {
	SortBy string `json:"sort_by,omitempty" jsonschema:"description=Metric to rank by (default: complexity),enum=complexity,enum=loc,enum=fan_in,enum=fan_out"`
	Limit  int    `json:"limit,omitempty" jsonschema:"description=Maximum number of results to return (default: 10)"`
}

// StatsInput is empty: the stats endpoint takes no parameters.
type StatsInput struct{}

// === API response types ===

// Symbol is one code symbol returned by the search endpoint.
type Symbol struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Kind      string  `json:"kind"`
	File      string  `json:"file,omitempty"`
	Line      int     `json:"line,omitempty"`
	Signature string  `json:"signature,omitempty"`
	Score     float64 `json:"score,omitempty"`
}

type searchResponse struct {
	Results []Symbol `json:"results"`
}

type sourceResponse struct {
	NodeID    string `json:"node_id"`
	File      string `json:"file,omitempty"`
	StartLine int    `json:"start_line,omitempty"`
	EndLine   int    `json:"end_line,omitempty"`
	Source    string `json:"source"`
}

// Dependency is one edge endpoint returned by the dependencies endpoint.
type Dependency struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Kind     string `json:"kind,omitempty"`
	Relation string `json:"relation,omitempty"`
}

type dependenciesResponse struct {
	NodeID       string       `json:"node_id"`
	Direction    string       `json:"direction"`
	Dependencies []Dependency `json:"dependencies"`
}

type contextResponse struct {
	Description string `json:"description"`
}

// Hotspot is one ranked entry from the metrics endpoint.
type Hotspot struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	File  string  `json:"file,omitempty"`
	Value float64 `json:"value"`
}

type metricsResponse struct {
	SortBy  string    `json:"sort_by"`
	Results []Hotspot `json:"results"`
}

// Stats summarises the whole graph.
type Stats struct {
	Nodes int            `json:"nodes"`
	Edges int            `json:"edges"`
	Files int            `json:"files,omitempty"`
	Kinds map[string]int `json:"kinds,omitempty"`
}

// apiError is the error payload returned by the service on non-2xx statuses.
type apiError struct {
	Error string `json:"error"`
}
