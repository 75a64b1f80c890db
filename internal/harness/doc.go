// Package harness provides conformance testing for query documents.
//
// A scenario names one query document, the statement it must render to in
// each dialect, and optionally the rows the SQLite rendering returns from a
// seeded in-memory database.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: weekly_surveys
//	description: "Paged weekly surveys, newest first"
//	document: queries/weekly.yaml      # or inline: {query: {...}}
//	count: false
//	expect:
//	  oracle:
//	    sql: "select s.id from survey s where s.kind = ? and rownum < 10 order by s.id desc"
//	    constants: [weekly]
//	  postgres:
//	    sql: "select s.id from survey s where s.kind = $1 order by s.id desc limit 10"
//	    constants: [weekly]
//	execute:
//	  setup:
//	    - create table survey (id integer primary key, kind text)
//	    - insert into survey values (1, 'weekly'), (2, 'daily')
//	  rows: [[1]]
//
// Document paths are relative to the scenario file. Constants and rows are
// compared after literal normalization (integers as int64, fractional
// numbers as exact decimals).
//
// # Deterministic Testing
//
// Rendering is a pure function of document and dialect, so results are
// reproducible. Each execute step uses its own in-memory SQLite database.
// Snapshots are canonical JSON (ir.MarshalCanonical) and exclude the run id.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/weekly.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
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
