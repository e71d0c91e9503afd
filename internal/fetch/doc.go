// Package fetch provides the HTTP client used by the crawler and the
// auditors.
//
// The client is built once from configuration and passed to every
// component that performs network I/O. Components never construct their
// own http.Client; injecting the capability keeps timeouts, body limits,
// and the User-Agent consistent across the whole audit, and lets tests
// point everything at an httptest server.
package fetch
