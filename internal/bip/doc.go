// Package bip holds the shared vocabulary of the cover-art responder: asset
// identifiers, protocol-visible image handles, cached image attributes,
// server capability bounds, resolved render specs, and the error taxonomy
// every other package reports through.
//
// # Image Handles
//
// A handle is a 7-digit decimal string in the range 0000000..9999999. It is
// the only identifier a remote peer ever sees; asset ids never leave the
// responder.
//
// # Pixel Notation
//
// Dimensions are written the way the imaging profile writes them on the
// wire: a discrete size is "W*H" and a range is "minW*minH-maxW*maxH".
//
// # Error Handling
//
// Failures are reported as wrapped sentinel errors. Use errors.Is against the
// Err* values, or Kind to obtain a stable name suitable for transport-level
// error payloads.
package bip
