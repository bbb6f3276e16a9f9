// Package viz draws the fluid in the terminal.
//
//   - [Canvas]: braille dot canvas, 2x4 dots per cell
//   - [Camera]: side, top and orbit projections of the container
//   - [Model]: the Bubble Tea live view built on a [sim.Engine]
//
// # Key Bindings
//
//	Space   - Pause/Resume
//	R       - Reset particles and obstacles
//	N       - Next scenario
//	Tab/↑↓  - Select and tune a parameter
//	WASD/FC - Move the 3D cursor
//	I O E   - Impulse, obstacle, source at the cursor
//	V       - Cycle view
//	G       - Toggle GIF recording
//	?       - Help
package viz
