package api

type Kind string

const (
	KindNode   Kind = "node"
	KindServer Kind = "server"
	KindLink   Kind = "link"
)

// Attribute keys which the backend is expected to change between polls.
const (
	AttrColor = "faveColor"
	AttrLabel = "label"
)

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type ElementData struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	FaveColor string `json:"faveColor"`

	// Nodes and servers only
	FaveShape string `json:"faveShape,omitempty"`
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`

	// Links only
	Source string  `json:"source,omitempty"`
	Target string  `json:"target,omitempty"`
	Weight float64 `json:"weight,omitempty"`
}

// Element is a node, server or link as returned by the backend.
type Element struct {
	Data     ElementData `json:"data"`
	Position *Position   `json:"position,omitempty"`
	Classes  string      `json:"classes,omitempty"`
}

func (e Element) ID() string {
	return e.Data.ID
}

func (e Element) IsEdge() bool {
	return e.Data.Source != "" || e.Data.Target != ""
}

// Patch holds the changed attributes of one rendered element.
type Patch struct {
	ID   string            `json:"id"`
	Data map[string]string `json:"data"`
}

type ConstraintFlag struct {
	Checked  bool `json:"checked"`
	Disabled bool `json:"disabled"`
}

type Scenario struct {
	InputFileName     string          `json:"inputFileName"`
	ObjectiveFunction string          `json:"objectiveFunction"`
	Maximization      bool            `json:"maximization"`
	Model             string          `json:"model"`
	Weights           string          `json:"weights,omitempty"`
	Constraints       map[string]bool `json:"constraints"`
}

type GraphPoint struct {
	Year  string  `json:"year"`
	Value float64 `json:"value"`
}

// Summary is [avg, min, max, stddev].
type Summary [4]float64

type Results struct {
	LinkUtilization    Summary `json:"luSummary"`
	ServerUtilization  Summary `json:"xuSummary"`
	FunctionsPerServer Summary `json:"fpSummary"`
	ServiceDelay       Summary `json:"sdSummary"`

	LinkUtilizationGraph   []GraphPoint `json:"luGraph"`
	ServerUtilizationGraph []GraphPoint `json:"xuGraph"`
	ServiceDelayGraph      []GraphPoint `json:"sdGraph"`

	Cost            float64 `json:"cost"`
	ObjVal          float64 `json:"objVal"`
	ComputationTime float64 `json:"computationTime"`
	AvgPathLength   float64 `json:"avgPathLength"`
	TotalTraffic    float64 `json:"totalTraffic"`
	TrafficLinks    float64 `json:"trafficLinks"`
	MigrationsNum   int     `json:"migrationsNum"`
	ReplicationsNum int     `json:"replicationsNum"`
	Migrations      []int   `json:"migrations,omitempty"`
	Replications    []int   `json:"replications,omitempty"`
}
