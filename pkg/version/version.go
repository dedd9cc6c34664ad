// Package version reports the widgetd build.
package version

// Set with -ldflags "-X github.com/proton2025/widgetd/pkg/version.version=...".
//
//nolint:gochecknoglobals // ldflags injection
var (
	version = "dev"
	buildID = "dev"
)

// Info describes the running build.
type Info struct {
	Version string `json:"version"`
	BuildID string `json:"build_id"`
}

// Get returns the build information.
func Get() Info {
	return Info{Version: version, BuildID: buildID}
}

func (i Info) String() string {
	if i.BuildID == "" || i.BuildID == i.Version {
		return i.Version
	}

	return i.Version + " (build: " + i.BuildID + ")"
}
