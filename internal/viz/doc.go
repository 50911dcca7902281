// Package viz draws a running particle simulation in the terminal.
//
// [Model] is a Bubble Tea program that advances the simulation once per
// tick and renders every entity as a braille circle on a [Canvas], with a
// HUD beside it charting mean speed.
//
// # Key Bindings
//
//	Space - Pause/Resume simulation
//	N     - Single step while paused
//	R     - Rebuild the simulation from its configuration
//	D     - Toggle debug markers (attractors and index nodes)
//	T     - Cycle color themes
//	Q     - Quit
//
// When the configuration contains a pointer_pusher mutator, the mouse
// moves it across the world.
package viz
