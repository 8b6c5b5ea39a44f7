// Package trim searches for the pitch, elevator and throttle that hold an
// aircraft in steady level flight at a target altitude and airspeed.
//
// The search is a seeded particle swarm over a bounded box, so identical
// inputs always produce identical results. A failed search never panics or
// exits: it returns an *AbortError carrying the best estimate found.
package trim
