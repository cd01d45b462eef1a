// Package device implements the simulated microscope peripherals and the
// registry that constructs and tracks them.
//
// Every device shares one Hub, which owns the setting log all reads and
// writes flow through. Devices are constructed by name: the prefix selects
// the kind (TCamera, TShutter, TXYStage, TZStage, TAFStage, TAutofocus) and
// the full name identifies the instance, so "TCamera-1" and "TCamera-high"
// are both cameras. Settings come into existence during Initialize, and
// pre-init-only settings reject writes afterwards.
//
// The camera is the interesting one: SnapImage and sequence acquisition pack
// the hub's setting log into the emitted image payload, turning each frame
// into a transcript of everything that happened since the previous one.
package device
