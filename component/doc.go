// Package component coordinates the lifecycle of a set of named components
// that depend on one another.
//
// Components are registered with a factory and the names they depend on.
// BringUp builds the dependency graph, runs every factory on its own
// goroutine as soon as its dependencies exist, then calls
// OnAllComponentsLoaded in construction order. BringDown calls
// OnAllComponentsAreStopping on every component and closes them in the exact
// reverse of the order in which they were created.
//
//	reg := component.NewRegistry(component.WithLogger(log))
//	_ = reg.Register("db", newDB)
//	_ = reg.Register("cache", newCache, "db")
//
//	if err := reg.BringUp(ctx); err != nil {
//		reg.BringDown(ctx)
//		return err
//	}
//	defer reg.BringDown(ctx)
//
// A factory reaches its dependencies through the Context it receives:
//
//	func newCache(c *component.Context) (component.Component, error) {
//		db, err := component.Find[*DB](c, "db")
//		if err != nil {
//			return nil, err
//		}
//		return &Cache{db: db}, nil
//	}
//
// # Optional hooks
//
//   - LoadingCancelledHook: bring-up was cancelled after the component was created
//   - AllComponentsLoadedHook: every component exists
//   - AllComponentsStoppingHook: shutdown is starting
//   - HealthChecker: health reporting
//   - Describable: startup summary descriptions
package component
