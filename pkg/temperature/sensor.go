package temperature

import (
	"math"
	"regexp"
	"strings"

	"github.com/proton2025/widgetd/pkg/catalog"
)

// Level classifies a temperature.
type Level string

const (
	LevelNormal   Level = "normal"
	LevelWarm     Level = "warm"
	LevelHot      Level = "hot"
	LevelCritical Level = "critical"
)

// Thresholds in °C.
const (
	WarmThreshold     = 50
	HotThreshold      = 70
	CriticalThreshold = 85

	maxScale = 100
)

// SensorType is derived from the sensor name and selects the icon.
type SensorType string

const (
	TypeCPU     SensorType = "cpu"
	TypeSoC     SensorType = "soc"
	TypeWiFi    SensorType = "wifi"
	TypeDDR     SensorType = "ddr"
	TypeBoard   SensorType = "board"
	TypeDefault SensorType = "default"
)

// LevelOf classifies temp.
func LevelOf(temp int) Level {
	switch {
	case temp >= CriticalThreshold:
		return LevelCritical
	case temp >= HotThreshold:
		return LevelHot
	case temp >= WarmThreshold:
		return LevelWarm
	default:
		return LevelNormal
	}
}

// StatusText is the untranslated label of a level.
func (l Level) StatusText() string {
	switch l {
	case LevelWarm:
		return "Warm"
	case LevelHot:
		return "Hot"
	case LevelCritical:
		return "Critical"
	case LevelNormal:
	}

	return "Normal"
}

// Percent maps temp onto a 0-100 °C bar.
func Percent(temp int) float64 {
	return math.Min(math.Max(float64(temp)/maxScale*100, 0), 100)
}

// TypeOf guesses the sensor type from its name.
func TypeOf(name string) SensorType {
	lower := strings.ToLower(name)

	switch {
	case strings.Contains(lower, "cpu") || strings.Contains(lower, "processor"):
		return TypeCPU
	case strings.Contains(lower, "soc"):
		return TypeSoC
	case strings.Contains(lower, "wifi") || strings.Contains(lower, "wireless") || strings.Contains(lower, "wlan"):
		return TypeWiFi
	case strings.Contains(lower, "ddr") || strings.Contains(lower, "ram") || strings.Contains(lower, "memory"):
		return TypeDDR
	case strings.Contains(lower, "board") || strings.Contains(lower, "system"):
		return TypeBoard
	default:
		return TypeDefault
	}
}

var (
	zonePrefix = regexp.MustCompile(`^thermal_zone\d+_`)
	knownWords = []struct {
		re  *regexp.Regexp
		key string
	}{
		{regexp.MustCompile(`(?i)\bcpu\b`), "CPU"},
		{regexp.MustCompile(`(?i)\bsoc\b`), "SoC"},
		{regexp.MustCompile(`(?i)\bwifi\b`), "WiFi"},
		{regexp.MustCompile(`(?i)\bddr\b`), "DDR"},
		{regexp.MustCompile(`(?i)\bboard\b`), "Board"},
	}
)

// FormatName turns a raw sensor name such as "thermal_zone0_cpu_temp" into a
// label ("CPU"), translating known words with t.
func FormatName(name string, t func(string) string) string {
	if t == nil {
		t = func(s string) string { return s }
	}

	formatted := zonePrefix.ReplaceAllString(name, "")
	formatted = strings.TrimSuffix(formatted, "_temp")
	formatted = strings.TrimSuffix(formatted, "_input")
	formatted = strings.TrimSpace(catalog.DisplayName(formatted))

	for _, w := range knownWords {
		formatted = w.re.ReplaceAllLiteralString(formatted, t(w.key))
	}

	if formatted == "" {
		return t("Sensor")
	}

	return formatted
}
