package level

import (
	"github.com/roach88/bigflow/internal/ir"
)

// Defaults applied when a definition omits a value.
const (
	DefaultTargetFlow     = 100.0
	DefaultTimeLimit      = 180.0
	DefaultInitialBudget  = 5000.0
	DefaultGenerationRate = 20.0
	DefaultThroughput     = 0.8
)

// Definition is a fully defaulted level.
type Definition struct {
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	TargetFlow     float64         `json:"target_flow"`
	TimeLimit      float64         `json:"time_limit"`
	InitialBudget  float64         `json:"initial_budget"`
	ConnectionCost float64         `json:"connection_cost"`
	Nodes          []NodeDef       `json:"nodes"`
	Connections    []ConnectionDef `json:"connections"`
}

// NodeDef declares one node. Name is the key connections refer to.
type NodeDef struct {
	Name   string    `json:"name"`
	Kind   ir.Kind   `json:"kind"`
	Params ir.Params `json:"params"`
}

// ConnectionDef declares one edge by node name.
type ConnectionDef struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// document is the on-disk shape shared by YAML and CUE files.
// Pointers distinguish omitted values from explicit zeros.
type document struct {
	Name           string    `yaml:"name" json:"name"`
	Description    string    `yaml:"description,omitempty" json:"description,omitempty"`
	TargetFlow     *float64  `yaml:"target_flow,omitempty" json:"target_flow,omitempty"`
	TimeLimit      *float64  `yaml:"time_limit,omitempty" json:"time_limit,omitempty"`
	InitialBudget  *float64  `yaml:"initial_budget,omitempty" json:"initial_budget,omitempty"`
	ConnectionCost *float64  `yaml:"connection_cost,omitempty" json:"connection_cost,omitempty"`
	Nodes          []nodeDoc `yaml:"nodes" json:"nodes"`
	Connections    []connDoc `yaml:"connections,omitempty" json:"connections,omitempty"`
}

type nodeDoc struct {
	Name           string   `yaml:"name" json:"name"`
	Kind           string   `yaml:"kind" json:"kind"`
	GenerationRate *float64 `yaml:"generation_rate,omitempty" json:"generation_rate,omitempty"`
	Throughput     *float64 `yaml:"throughput,omitempty" json:"throughput,omitempty"`
}

type connDoc struct {
	From string `yaml:"from" json:"from"`
	To   string `yaml:"to" json:"to"`
}

func orDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

// definition applies defaults. Source rate and filter throughput defaults
// only apply to their own kind; other kinds keep explicit values or zero.
func (d *document) definition() *Definition {
	def := &Definition{
		Name:           d.Name,
		Description:    d.Description,
		TargetFlow:     orDefault(d.TargetFlow, DefaultTargetFlow),
		TimeLimit:      orDefault(d.TimeLimit, DefaultTimeLimit),
		InitialBudget:  orDefault(d.InitialBudget, DefaultInitialBudget),
		ConnectionCost: orDefault(d.ConnectionCost, 0),
		Nodes:          make([]NodeDef, 0, len(d.Nodes)),
		Connections:    make([]ConnectionDef, 0, len(d.Connections)),
	}

	for _, n := range d.Nodes {
		kind := ir.Kind(n.Kind)
		rateDefault, throughputDefault := 0.0, 0.0
		switch kind {
		case ir.KindSource:
			rateDefault = DefaultGenerationRate
		case ir.KindFilter:
			throughputDefault = DefaultThroughput
		}
		def.Nodes = append(def.Nodes, NodeDef{
			Name: n.Name,
			Kind: kind,
			Params: ir.Params{
				GenerationRate: orDefault(n.GenerationRate, rateDefault),
				Throughput:     orDefault(n.Throughput, throughputDefault),
			},
		})
	}

	for _, c := range d.Connections {
		def.Connections = append(def.Connections, ConnectionDef{From: c.From, To: c.To})
	}
	return def
}
