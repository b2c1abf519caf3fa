// Package source is the host side of a run: it collects assets from a
// project directory, writes emitted assets into an output tree, and guards
// that tree with a file lock.
package source
