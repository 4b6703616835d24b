// Package detector recognizes the panic gesture: a burst of screen toggles
// inside a short sliding window.
//
// The window is a FIFO ordered by arrival. Entries older than the window,
// measured against the newest arrival, are evicted before the new one is
// admitted; reaching the threshold fires and clears the window, so every
// trigger needs a fresh burst. Events are ignored while monitoring is not
// armed.
package detector
