// Package dering implements the frame stage of a direction-adaptive deringing
// filter for block-based video codecs.
//
// The filter runs once per reconstructed frame, after prediction and residual
// reconstruction and before the frame is used as a reference or emitted. For
// every 64x64 superblock it derives a filter level from the frame strength and
// the superblock's coded gain index, skips superblocks that carry no residual,
// and runs the directional deringing kernel over each active color plane.
// Output is bit-exact: it depends only on the input samples, the mode-info
// grid and the frame strength.
//
// Basic usage:
//
//	f := dering.NewFrame(miRows, miCols, 8, dering.Subsampling420)
//	mi := dering.NewModeInfoGrid(miRows, miCols)
//	// ... reconstruct samples into f, fill mi from the bitstream ...
//	stats, err := dering.Apply(f, mi, globalLevel, nil)
package dering
