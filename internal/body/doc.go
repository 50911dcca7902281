// Package body defines the simulated point mass and its motion update.
//
// An [Entity] is owned by the simulation's entity collection. Mutators may
// add to its acceleration or rewrite its position and velocity directly;
// [Entity.Integrate] applies the accumulated acceleration once per step and
// clears it.
//
// The integration scheme is semi-implicit Euler with per-axis drag:
//
//	v += a
//	v.x *= 1 - drag.x
//	v.y *= 1 - drag.y
//	p += v
//	a = 0
package body
