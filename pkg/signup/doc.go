// Package signup runs the signup submission routine: collect the submitted
// entries into a record, check the password confirmation, and either report
// the mismatch or forward the record to a sink.
//
// A Session moves between three states. It starts Idle, becomes Invalid when
// the passwords differ and Submitted once a sink accepts the record. Every
// call to Submit clears a previous Invalid state first.
package signup
