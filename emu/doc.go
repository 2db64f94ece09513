// Package emu provides the core experiment pipeline for building Gaussian
// process surrogates ("emulators") of stochastic black-box simulators.
//
// # Reading Guide
//
// Start with these three files to understand the pipeline:
//   - design.go: parameter-space bounds and Latin hypercube designs
//   - aggregate.go: repeated simulator runs grouped per design point
//   - experiment.go: the design → simulate → fit → predict → compare flow
//
// # Architecture
//
// The emu package defines interfaces and pipeline stages; implementations
// live in sub-packages:
//   - emu/gp/: the Gaussian process emulator (kernels, nugget policies)
//   - emu/bus/: agent-based bus-route simulator
//   - emu/projectile/: projectile-with-drag simulator
//   - emu/report/: per-point comparison records and summaries
//
// Simulator sub-packages register their factories via init() functions
// (RegisterSimulator), so an ExperimentSpec can name them without emu
// importing them.
//
// # Key Interfaces
//
// The extension point is a single small interface:
//   - Simulator: map one design point to one scalar output under an
//     injected random source
//
// All pipeline stages are stateless transformations over slices; the only
// state threaded through is the PartitionedRNG that keeps every stochastic
// subsystem on its own deterministic stream.
package emu
