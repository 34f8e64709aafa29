// Package verify handles the email-verification landing: a pure parse of a
// captured URL snapshot, evaluated once, plus a localhost listener so
// emailed links have somewhere to land. Nothing here calls the network.
package verify

import "net/url"

// Outcome is the verification result carried by the landing URL.
type Outcome int

const (
	Success Outcome = iota
	Failure
)

// Landing is the decoded verification landing.
type Landing struct {
	Message string
	Outcome Outcome
}

// ParseLanding decodes a URL snapshot into a landing. Both the message and
// status parameters must be present; otherwise this is not a verification
// landing and the caller falls through to the normal startup decision. A
// status value outside {success, error} maps to the failure outcome: the
// link is a verification link, it just cannot be trusted.
func ParseLanding(u *url.URL) (Landing, bool) {
	if u == nil {
		return Landing{}, false
	}
	q := u.Query()
	message := q.Get("message")
	status := q.Get("status")
	if message == "" || status == "" {
		return Landing{}, false
	}

	outcome := Failure
	if status == "success" {
		outcome = Success
	}
	return Landing{Message: message, Outcome: outcome}, true
}
