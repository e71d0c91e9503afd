// Package audit implements the site auditors: on-page SEO, static
// accessibility, link health, structured data, robots.txt, transport
// security, Lighthouse performance, and image metadata privacy.
//
// Every auditor takes the shared fetch.Client and returns a typed
// result from internal/model. Network and parse failures are folded
// into the result's Error field so callers always get a well-formed
// result object. Scoring is done by pure functions over extracted
// data, which keeps every score deterministic and inside [0, 100].
package audit
