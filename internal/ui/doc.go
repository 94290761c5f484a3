// Package ui is the Bubble Tea front end of the order tracker.
//
// The root AppModel subscribes to the session store and re-renders from each
// published snapshot. Views never write state directly: keys become messages,
// messages become commands that call the session managers, and the managers
// publish the next snapshot.
//
// Building blocks:
//   - View: a screen region with its own Init/Update/View
//   - OverlayStack: modal views that take input before anything else
//   - FocusManager: rotates focus across named fields
//   - KeybindRegistry/KeyHandler: SPC-leader bindings filtered by panel
package ui
