//go:build !darwin

package sourceapp

// frontmostApp has no portable equivalent outside macOS.
func frontmostApp() string { return "" }
