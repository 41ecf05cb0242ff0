package version

// Version is the release version, overridden at build time with
// -ldflags "-X deskagent/internal/version.Version=...".
var Version = "0.3.0"
