// Package services wires the clustering engine to its collaborators: the
// document store, the label generator, and the result cache. Services are
// stateless between invocations and safe for concurrent use across tenants.
package services

import "errors"

// ErrDocumentNotFound is returned when a similarity query targets a
// document that does not exist or has no embedded chunk. Callers detect it
// with errors.Is.
var ErrDocumentNotFound = errors.New("document not found")
