package livetl

// Version information for livetl.
// These values can be overridden at build time using ldflags:
//
//	go build -ldflags "-X github.com/orbitsmeet/livetl.GitCommit=$(git rev-parse HEAD)"
const (
	// Name is the application name.
	Name = "livetl"

	// Description is a short description of the application.
	Description = "Live AI translation for meeting captions and chat"

	// Version is the semantic version of the application.
	Version = "0.3.0"
)

// BuildInfo contains build-time information.
var (
	// GitCommit is the git commit hash.
	GitCommit = "unknown"

	// BuildDate is the build timestamp.
	BuildDate = "unknown"
)

// FullVersion returns the version string with optional build info.
func FullVersion() string {
	v := Version
	if GitCommit != "unknown" && GitCommit != "" {
		short := GitCommit
		if len(short) > 7 {
			short = short[:7]
		}
		v += "+" + short
	}
	return v
}
