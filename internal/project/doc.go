// Package project defines the data that flows through a generation run.
//
// A Request names what to build. The Architect turns it into an
// ArchitectureDocument listing components; the Coder produces one Artifact
// per component, optionally followed by a ReviewResult and a TestArtifact.
// A Result collects all of it together with the failures recorded on the
// way. StepProgress events report the run as it happens.
//
// Types here carry no behavior beyond validation and small derived views
// (Slug, NeedsAttention, Partial). The orchestrator is the only writer of
// a Result.
package project
