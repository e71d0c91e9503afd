// Package crawler implements the site crawler: a breadth-first spider
// bounded by a page budget, and an HTML parser that extracts everything
// the audits need in a single pass over the DOM.
//
// The spider only follows links whose host exactly matches the start
// URL's host. Frontier membership is checked at enqueue time so the
// queue never holds duplicates, which keeps the page budget exact.
package crawler
