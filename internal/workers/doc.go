/*
Package workers provides utilities for determining optimal worker pool sizes
in containerized environments.

# Overview

When running Go applications in containers (Docker, Kubernetes, etc.), the
number of available CPUs may be limited by cgroup constraints. While Go 1.19+
automatically sets GOMAXPROCS based on container CPU limits, the commonly used
runtime.NumCPU() function still returns the host machine's CPU count.

This package provides helper functions that use GOMAXPROCS to determine
appropriate worker counts for different types of workloads, ensuring your
application respects container resource limits.

# Basic Usage

The package provides task-specific helper functions:

	import "photo-stream/internal/workers"

	// For CPU-intensive tasks (manifest parsing, checksum computation)
	// Uses 1 worker per available CPU
	numWorkers := workers.ForCPU(8) // max 8 workers

	// For I/O-bound tasks (database inserts, file reads)
	// Uses 2 workers per available CPU
	numWorkers := workers.ForIO(16) // max 16 workers

	// For mixed workloads
	// Uses 1.5 workers per available CPU
	numWorkers := workers.ForMixed(12) // max 12 workers

For fine-grained control, use the Count function directly:

	// 3 workers per CPU, maximum of 24
	numWorkers := workers.Count(3.0, 24)

	// No maximum (use 0)
	numWorkers := workers.Count(2.0, 0)

# Environment Variable Override

All functions respect the SEED_WORKERS environment variable, allowing
operators to override the automatic calculation:

	env:
	- name: SEED_WORKERS
	  value: "4"

This is useful for fine-tuning bulk imports in specific environments, or for
temporarily limiting concurrency while debugging resource issues.

# Choosing a Multiplier

Tasks that primarily consume CPU cycles benefit from one worker per available
CPU; more workers just increase context switching overhead. Tasks that spend
most of their time waiting for I/O can run more workers than CPUs, since
workers make progress while others wait. The photoseed importer is I/O-bound
on SQLite writes, so it uses ForIO with a cap sized to the write contention
the database can absorb.

When workers hit a shared downstream resource, cap the pool at what that
resource can handle:

	workers := workers.ForIO(dbPoolSize)

# Thread Safety

All functions in this package are safe for concurrent use. They read from
runtime.GOMAXPROCS and environment variables, which are themselves thread-safe.

# Go Version Requirements

This package relies on Go 1.19+ behavior where GOMAXPROCS is automatically
set based on container CPU limits. On earlier Go versions, GOMAXPROCS defaults
to runtime.NumCPU(), and the container-awareness benefits are lost.
*/
package workers
