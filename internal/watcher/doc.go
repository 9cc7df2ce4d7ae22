// Package watcher turns raw filesystem notifications into debounced domain
// events. Two variants exist: the assistant watcher follows a directory tree
// and classifies changed files, the project watcher only flags removals under
// the project scan root.
package watcher
