// Package orchestrator drives one project request through the pipeline.
//
// # Steps
//
//	architect → components → review → tests → aggregate → persist
//
// The architect step is the only fatal one: when no design can be produced
// the run ends with Result.Fatal set and no components are generated. Every
// other failure is recorded in Result.Failures and the run continues, so a
// project with one exhausted component is still written as a partial
// success.
//
// # Components
//
// Components run in declared order by default. PipelineConfig.DependencyOrder
// sorts them topologically first (Kahn, ties by declared order, cycle members
// in declared order). With Parallelism > 1 components whose dependencies are
// finished run in a bounded errgroup; results always keep declared order and
// colliding filenames get _2, _3 suffixes.
//
// # Progress
//
// OnProgress receives a project.StepProgress per step and component. A
// Publisher, when set, receives the same events; publish errors are logged
// and never fail the run.
//
// # Errors
//
// CreateProject returns an error for an invalid request or a cancelled
// context. Model, gate and persistence problems are expressed in the Result.
package orchestrator
