// Package model implements the field/container data model of a
// protocol-fuzzing template engine: a tree of typed, bit-precise
// fields that render themselves to a bitstream, enumerate a
// deterministic sequence of mutated variants, and reference each
// other's live rendered state to compute derived values (lengths,
// counts, indices, digests).
//
// # Building a template
//
//	payload, _ := model.NewString("GET / HTTP/1.1", model.StringOptions{Name: "request", Fuzzable: true})
//	length, _ := model.NewSizeInBytes("request", model.SizeInBytesOptions{Name: "len", Length: 32})
//	tpl, _ := model.NewContainer([]model.Field{length, payload}, model.ContainerOptions{Name: "tpl", Fuzzable: true})
//
// # Mutating
//
// A container advances exactly one fuzzable descendant per Mutate call
// and returns false once every descendant's mutation domain is
// exhausted:
//
//	out, _ := tpl.Render() // default rendering
//	for tpl.Mutate() {
//	    out, _ = tpl.Render()
//	    // send out.Bytes() to the target
//	}
//	tpl.Reset() // replay the identical sequence
//
// Calculated fields (Clone, Size, SizeInBytes, ElementCount, IndexOf,
// Hash) resolve their target by name on every render, so they track
// the target's current mutated state and survive tree restructuring.
//
// # Errors
//
// Constructors return [ErrConfiguration] for invalid static
// parameters. Render returns [ErrResolution] when a calculated field's
// target cannot be found. Mutate returning false is a normal terminal
// state, not an error.
//
// The model performs no I/O, keeps no global state apart from what the
// caller installs as session data, and is not safe for concurrent use
// of a single tree.
package model
