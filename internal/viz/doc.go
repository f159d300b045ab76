// Package viz renders a running effect in the terminal.
//
// The preview is a Bubble Tea program that steps an effect at its frame
// rate and draws every LED either at its projected 3D position on the tree
// or as a flat strip in index order.
//
// # Key Bindings
//
//	Space - Pause/Resume
//	R     - Reset the effect
//	V     - Toggle tree/strip view
//	S     - Toggle auto-spin
//	←/→   - Spin the tree
//	↑/↓   - Tilt the camera
//	+/-   - Zoom
//	T     - Cycle themes
//	?     - Show help overlay
package viz
