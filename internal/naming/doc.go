// Package naming derives output, export and container-title names from the
// base release filename.
package naming
