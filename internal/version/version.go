package version

// Version is bumped on every release.
const Version = "0.1.0"

// FullVersion returns Version with a leading v.
func FullVersion() string {
	return "v" + Version
}
