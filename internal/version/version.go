// ABOUTME: Version constants for hush
// ABOUTME: Version can be overridden at build time with -ldflags -X
package version

// Version is the software version
var Version = "0.1.0"

const (
	// Product is the product name shown in hello messages and the TUI
	Product = "hush"

	// Manufacturer is reported alongside the product name
	Manufacturer = "hush contributors"
)

// String returns "product version"
func String() string {
	return Product + " " + Version
}
