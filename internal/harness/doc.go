// Package harness runs translation scenarios.
//
// A scenario is a YAML file naming a column schema, a fixed "now" and a
// list of cases. Each case is a question plus assertions on the query
// description the translator builds for it. Scenarios that carry rows
// also execute every description against an in-memory store, so
// assertions can check result counts and the first returned row.
//
// Scenario files are strict: unknown keys are rejected so a typo such as
// "assertion:" fails loudly instead of silently skipping checks.
//
// Example scenario:
//
//	name: monthly_counts
//	description: counting shipments this month
//	now: "2024-03-15T10:00:00+05:30"
//	columns: ["Ref #", "Ship Date", "Status", "Published Cost"]
//	cases:
//	  - text: how many shipments this month
//	    assertions:
//	      - type: intent
//	        intent: count
//	      - type: filter_has
//	        field: Ship Date
//	        kind: time_range
//
// RunWithGolden additionally compares every case's canonical description
// with a golden file, so any change in translator output shows up as a
// diff.
package harness
