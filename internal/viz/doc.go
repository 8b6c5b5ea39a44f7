// Package viz draws flights for the terminal and for image output.
//
//   - [Canvas]: Braille sub-pixel canvas addressed in world metres
//   - [PlanView]: top-down runway and track plot on a Canvas
//   - [PlanRenderer]: a world.Renderer producing RGBA frames
//   - asciigraph series for trim convergence and altitude traces
//   - lipgloss themes for CLI summaries
package viz
