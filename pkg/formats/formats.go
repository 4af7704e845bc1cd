// Package formats provides parsers for the model files the viewer loads.
package formats
