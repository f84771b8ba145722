// Package termesc abstracts terminal ANSI escape codes.
package termesc

const csi = "\x1B["

const (
	ClearScreen = csi + "2J" // Clears the entire visible area of the console
	CursorHome  = csi + "H"  // Moves the cursor to the top left corner
)
