package version

// Version is the service version, overridable with -ldflags "-X i2cgo/pkg/version.Version=...".
var Version = "v0.3.0"
