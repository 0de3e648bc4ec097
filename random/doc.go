// Package random provides uniform random sources and the exponential
// inter-arrival sampler that drives Poisson-paced stages.
//
// Sources yield uniform values in [0,1). NewPCG builds a deterministic,
// seedable source for reproducible replays; New builds an ambient source
// seeded from the operating system for live traffic shaping. Both are plain
// value generators with no locking: a source belongs to exactly one stage
// activation.
//
// ExpDelay maps a uniform value through the inverse CDF of the exponential
// distribution, producing the delay until the next arrival of a Poisson
// process with the given rate.
package random
