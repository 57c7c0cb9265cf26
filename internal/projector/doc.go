// Package projector derives sub-task completion statuses from upstream
// collaborator signals. Projection is pure and re-evaluated on every read so
// views always reflect current upstream truth.
package projector
