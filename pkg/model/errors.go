package model

import "errors"

// Sentinel errors returned by model operations.
//
// Callers should use [errors.Is] to check error types:
//
//	if errors.Is(err, model.ErrConfiguration) {
//	    // the template definition is broken; fix it and rebuild
//	}
var (
	// ErrConfiguration indicates invalid static construction
	// parameters: non-positive lengths, inverted or degenerate
	// min/max ranges, negative steps, values that do not fit the
	// requested bit width or bounds, empty candidate lists, or
	// duplicate field names within one container.
	//
	// Returned synchronously by constructors. A campaign controller
	// should treat it as fatal at startup.
	ErrConfiguration = errors.New("model: invalid configuration")

	// ErrResolution indicates a calculated field's target name could
	// not be found anywhere in the tree reachable from the template
	// root.
	//
	// Returned by Render, not by constructors: the tree may be
	// restructured between construction and rendering, so resolution
	// happens afresh on every render. A campaign controller should
	// treat it as fatal for the template.
	ErrResolution = errors.New("model: unresolved reference")
)
