// Pursuit compiles declarative query descriptors into record predicates and
// applies them to record collections.
//
// Usage:
//
//	# Filter a JSON array with a query descriptor
//	pursuit filter --query adults.yaml --records people.json
//
//	# Show the evaluation order chosen by the optimizer
//	pursuit explain --expr '{"age": {"greaterThan": 20}, "name": {"equals": "Ian"}}'
//
//	# Check query files and configuration
//	pursuit validate ./queries
//
//	# Compare optimized and declaration-order evaluation
//	pursuit bench --records people.json --iterations 200
//
//	# Serve the HTTP filter API with the query catalog and scheduled jobs
//	pursuit serve --config pursuit.yaml
package main

func main() {
	Execute()
}
