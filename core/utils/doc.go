// Package utils provides common utility functions for inventory-sync.
// It includes helper functions for type conversion and value normalization
// that are shared across the schema and source-loading packages.
package utils
