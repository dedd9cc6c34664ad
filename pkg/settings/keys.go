package settings

// Local keys of the options mirrored to the remote store.
const (
	KeyThemeMode      = "proton-theme-mode"
	KeyAccentColor    = "proton-accent-color"
	KeyZoom           = "proton-zoom"
	KeyTransparency   = "proton-transparency"
	KeyBorderRadius   = "proton-border-radius"
	KeyAnimations     = "proton-animations"
	KeyServicesWidget = "proton-services-widget-enabled"
	KeyTempWidget     = "proton-temp-widget-enabled"
	KeyServicesLog    = "proton-services-log"
	KeyTableWrap      = "proton-table-wrap"
)

// Local-only keys.
const (
	KeyWatchList     = "proton-services-widget"
	KeyServicesDebug = "proton-services-widget-debug"
)

var localToRemote = map[string]string{
	KeyThemeMode:      "mode",
	KeyAccentColor:    "accent",
	KeyZoom:           "zoom",
	KeyTransparency:   "transparency",
	KeyBorderRadius:   "border_radius",
	KeyAnimations:     "animations",
	KeyServicesWidget: "services_widget",
	KeyTempWidget:     "temp_widget",
	KeyServicesLog:    "services_log",
	KeyTableWrap:      "table_wrap",
}

var remoteToLocal = func() map[string]string {
	m := make(map[string]string, len(localToRemote))
	for local, remote := range localToRemote {
		m[remote] = local
	}

	return m
}()

// boolean options are "1"/"0" remotely and "true"/"false" locally
var booleanOptions = map[string]bool{
	"transparency":    true,
	"animations":      true,
	"services_widget": true,
	"temp_widget":     true,
	"services_log":    true,
	"table_wrap":      true,
}

// IsMapped reports whether a local key is mirrored remotely.
func IsMapped(localKey string) bool {
	_, ok := localToRemote[localKey]

	return ok
}

// ToRemote converts a local option to its remote name and value.
func ToRemote(localKey, value string) (string, string, bool) {
	remote, ok := localToRemote[localKey]
	if !ok {
		return "", "", false
	}

	if booleanOptions[remote] {
		if value == "true" {
			return remote, "1", true
		}

		return remote, "0", true
	}

	return remote, value, true
}

// ToLocal converts a remote option to its local key and value.
func ToLocal(remoteKey, value string) (string, string, bool) {
	local, ok := remoteToLocal[remoteKey]
	if !ok {
		return "", "", false
	}

	if booleanOptions[remoteKey] {
		if value == "1" {
			return local, "true", true
		}

		return local, "false", true
	}

	return local, value, true
}

// Enabled interprets a local boolean option. A missing value counts as enabled
// for the widget switches.
func Enabled(value string, found bool) bool {
	if !found {
		return true
	}

	return value != "false" && value != "0"
}
