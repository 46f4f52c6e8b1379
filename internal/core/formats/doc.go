// Package formats registers the file format strategies with the core
// registry. Import it for side effects to make the formats available.
package formats

// Each format file uses init() to register its definition.
