// Command stagegate is the operator CLI for the loan stage-gate tracker. It
// works directly against the configured database and does not require the
// daemon to be running.
package main
