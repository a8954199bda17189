// Package dag builds the dependency graph of a set of named components.
//
// Build validates the declarations (unique names, known dependencies, no
// cycles) and returns a Result holding a deterministic topological order,
// Kahn levels and the symmetric dependsOn/dependents sets:
//
//	res, err := dag.Build([]dag.Spec{
//		{Name: "db"},
//		{Name: "cache", DependsOn: []string{"db"}},
//		{Name: "http", DependsOn: []string{"db", "cache"}},
//	})
//	// res.Order  == [db cache http]
//	// res.Levels == [[db] [cache] [http]]
//
// Dependencies are declared in code by the caller of Build. LoadSpecs is
// optional glue for deployments that want to add edges from a file; it only
// reads names and depends_on lists and has no other syntax.
package dag
