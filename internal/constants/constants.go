// Package constants defines module-wide constants and version information.
package constants

// Version holds the driver version. This is set at build time via -ldflags.
var Version = "0.1.0"

// CommitID holds the git commit hash. This is set at build time via -ldflags.
var CommitID = "unknown"

// USBVendorID and USBProductID address the LaCrosse WS-28xx transceiver
// dongle (also sold under the TFA Primus brand).
const (
	USBVendorID  = 0x6666
	USBProductID = 0x5555
)
