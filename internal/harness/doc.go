// Package harness runs flow conformance scenarios.
//
// A scenario names a level file, optional setup steps and the expected
// result of evaluating the resulting graph. Runs are deterministic: seq
// numbers come from a fresh engine.Clock per run and the evaluation id is
// fixed, so traces can be compared byte for byte against golden files.
//
// # Scenario Format
//
//	name: turbo_wins
//	description: "Turbo on the filter reaches the target"
//	level: ../levels/starter.yaml
//	connections:
//	  - {from: backup, to: merge}
//	events:
//	  - {type: power_up, power_up: turbo, node: clean}
//	elapsed: 30
//	expect:
//	  total: 42
//	  sinks: {warehouse: 42}
//	  cycle_hits: 0
//	  status: won
//	  budget: 75
//	assertions:
//	  - {type: output, node: clean, value: 32}
//	  - {type: resolution_order, nodes: [ingest, clean, merge]}
//	  - {type: unreached, node: spare}
//	  - {type: cycle_hit, node: a, via: b}
//
// Flow values are compared with an absolute tolerance of 1e-9.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/turbo_wins.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, e := range result.Errors {
//	        log.Println(e)
//	    }
//	}
package harness
