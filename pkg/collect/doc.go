// Package collect turns the raw name/value pairs of a form submission into a
// normalised Record.
//
// Fields whose names are declared multi-valued (checkbox groups sharing a
// name, multi-selects) collapse into an ordered list; every other field keeps
// a single value, with the last submitted value winning when a name repeats.
// Collection is pure: the same entries always produce an equal Record and the
// input is never modified.
package collect
