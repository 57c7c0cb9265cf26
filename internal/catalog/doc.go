// Package catalog defines the immutable, ordered loan stage catalog and its
// sub-tasks. The catalog is reference data loaded once at process start;
// lookups are read-only and safe for concurrent use.
package catalog
