// Package harness runs declarative CTE chains and composition scenarios.
//
// A chain names the sub-queries to register, in order, and a final select.
// A scenario wraps a chain with a base schema, per-step error expectations
// and assertions, so registration rules can be tested without writing Go.
//
// # Scenario Format
//
//	name: conflict_no_overwrite
//	description: "A second charles is rejected; the first survives"
//	schema: ../schema
//	steps:
//	  - name: charles
//	    query: {from: people, where: [{column: name, value: Charles}]}
//	  - name: charles
//	    query: {from: dogs}
//	    expect_error: SCHEMA_CONFLICT
//	select: {from: charles, columns: [name]}
//	assertions:
//	  - type: view_names
//	    names: [dogs, people, charles]
//	  - type: error_count
//	    count: 1
//
// # Assertion Types
//
//   - view_names: the final Extended Schema, base tables first
//   - sql_contains: a fragment of the compiled SQL
//   - param_count: the number of bound parameters
//   - error_count: steps that failed with their expected code
//
// # Deterministic Output
//
// Chain steps are always registered through the deferred path, so a step
// is only evaluated after its name has been accepted. Compiled SQL and
// statement IDs depend only on the chain, which keeps golden snapshots
// stable across runs.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/charles_and_pauls.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(ctx, scenario, base)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
