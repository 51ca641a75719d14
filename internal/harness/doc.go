// Package harness runs plan scenarios through the SQL generator and checks
// the text and parameters it produces.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: filtered_projection
//	description: "Filter and projection collapse into one SELECT"
//	catalog: ../catalog          # optional CUE catalog directory
//	rewrites: false              # optional, default true
//	plan:
//	  query:
//	    project:
//	      input:
//	        as: Filter1
//	        expr: {filter: {...}}
//	      columns:
//	        - {name: id, expr: {prop: Filter1.id}}
//	expect:
//	  sql: "SELECT `Extent1`.`id` FROM ..."
//	  params:
//	    - {name: gp1, type: VarChar, value: "bob"}
//	assertions:
//	  - type: sql_contains
//	    text: "LIKE @gp1"
//
// expect.error names a generation error code (UNSUPPORTED_NODE or
// MALFORMED_TREE) instead of sql for plans that must be rejected.
//
// # Assertion Types
//
//   - sql_contains: the generated text contains text
//   - sql_not_contains: the generated text does not contain text
//   - param_count: exactly count parameters were bound
//
// # Golden Files
//
// RunWithGolden snapshots the generated text and parameters under
// testdata/golden/{name}.golden. Regenerate with:
//
//	go test ./internal/harness -update
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/like.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
