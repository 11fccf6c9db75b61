//go:build mfe_minified

package mfe

// Optimized builds keep only the code and the documentation link.
const stripMessagesByDefault = true
