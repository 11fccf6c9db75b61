//go:build !mfe_minified

package mfe

const stripMessagesByDefault = false
