package canopy

// Version is the current library version, overridable at build time via
// -ldflags "-X github.com/aretw0/canopy.Version=...".
var Version = "0.3.0-dev"
