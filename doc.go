// Package hireqa implements the account lifecycle for the HireQA job
// portal: jobseeker signup with password policy enforcement, bcrypt
// credential storage, email verification with single-use tokens, and
// JWT-based login sessions.
//
// The package is organized around small command handlers (signup, verify
// email, resend verification) that coordinate bun-backed stores, an email
// dispatcher, and an activity sink. An HTTP controller built on fiber
// exposes the public API; cmd/server wires everything together.
package hireqa
