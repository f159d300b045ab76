// Package effects implements the tree animations and the registry the CLI
// selects them from.
//
// Spatial animations read per-LED features from a spatial.Model once at
// construction and evaluate a closed-form rule per LED per frame; only
// Rainbow carries state between frames.
package effects
