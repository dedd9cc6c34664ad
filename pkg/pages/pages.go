// Package pages decides how console pages are laid out: which pages belong to
// third-party packages and get a wider content area, and where widgets show.
package pages

import (
	"strings"
)

const (
	// MobileWidth is the viewport width below which no layout changes apply.
	MobileWidth = 800

	standardMaxWidth = 990
	gutter           = 20
	contentPadding   = 40
)

var standardPagePrefixes = []string{
	"admin-status",
	"admin-system",
	"admin-network-wireless",
	"admin-network-network",
	"admin-network-diagnostics",
}

var standardURLPatterns = []string{
	"/admin/status",
	"/admin/system",
	"/admin/network/wireless",
	"/admin/network/network",
	"/admin/network/diagnostics",
}

// Page identifies a console page.
type Page struct {
	// DataPage is the body data-page attribute, e.g. "admin-status-overview".
	DataPage string `json:"data_page,omitempty"`
	// Path is the URL path.
	Path string `json:"path,omitempty"`
	// DispatchPath is the console's dispatch path, e.g. ["admin","status","overview"].
	DispatchPath []string `json:"dispatch_path,omitempty"`
	// Width is the viewport width; zero when unknown.
	Width int `json:"width,omitempty"`
}

// IsCustom reports whether the page belongs to a third-party package. The
// data-page attribute decides when present, otherwise the URL does.
func IsCustom(p Page) bool {
	if p.DataPage != "" {
		for _, prefix := range standardPagePrefixes {
			if strings.HasPrefix(p.DataPage, prefix) {
				return false
			}
		}

		return true
	}

	if !strings.Contains(p.Path, "/admin/") {
		return false
	}

	for _, pattern := range standardURLPatterns {
		if strings.Contains(p.Path, pattern) {
			return false
		}
	}

	return true
}

// IsOverview reports whether p is the status overview page.
func IsOverview(p Page) bool {
	dp := p.DispatchPath
	if len(dp) >= 3 && dp[0] == "admin" && dp[1] == "status" && dp[2] == "overview" {
		return true
	}

	return p.DataPage == "admin-status-overview" || strings.Contains(p.Path, "/admin/status/overview")
}

// IsMobile reports whether the viewport is too narrow for layout changes.
func (p Page) IsMobile() bool {
	return p.Width > 0 && p.Width < MobileWidth
}

// Widgets holds the widget switches.
type Widgets struct {
	Services    bool `json:"services"`
	Temperature bool `json:"temperature"`
}

// SectionVisible reports whether the widgets section has anything to show.
func (w Widgets) SectionVisible() bool {
	return w.Services || w.Temperature
}

// Layout is the presentation decision for one page.
type Layout struct {
	Custom         bool `json:"custom"`
	Overview       bool `json:"overview"`
	WidgetsSection bool `json:"widgets_section"`
	ServicesWidget bool `json:"services_widget"`
	TempWidget     bool `json:"temp_widget"`
}

// Describe combines page detection with the widget switches. Widgets only
// appear on the overview page.
func Describe(p Page, w Widgets) Layout {
	l := Layout{
		Custom:   IsCustom(p) && !p.IsMobile(),
		Overview: IsOverview(p),
	}

	if l.Overview {
		l.ServicesWidget = w.Services
		l.TempWidget = w.Temperature
		l.WidgetsSection = w.SectionVisible()
	}

	return l
}

// ContainerWidth returns the width a custom page's content area should grow to
// so contentWidth fits, or 0 when the standard width suffices.
func ContainerWidth(contentWidth, viewportWidth, leftOffset int) int {
	if viewportWidth > 0 && viewportWidth < MobileWidth {
		return 0
	}

	if contentWidth <= standardMaxWidth {
		return 0
	}

	return min(contentWidth+contentPadding, viewportWidth-leftOffset-gutter)
}
