/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package catalog describes the services the widget knows about: their
// category, icon and description, and how they are grouped for display.
package catalog

import (
	"sort"
	"strings"
	"unicode"

	"github.com/proton2025/widgetd/pkg/models"
)

// Category groups services in the widget.
type Category string

const (
	CategoryCustom   Category = "custom"
	CategoryNetwork  Category = "network"
	CategorySecurity Category = "security"
	CategoryVPN      Category = "vpn"
	CategoryAdblock  Category = "adblock"
	CategorySystem   Category = "system"
	CategoryOther    Category = "other"
)

const (
	defaultIcon     = "📦"
	unknownPriority = 99
)

type categoryInfo struct {
	icon     string
	priority int
	name     string
}

var categories = map[Category]categoryInfo{
	CategoryCustom:   {"⭐", 0, "My Services"},
	CategoryNetwork:  {"🌐", 1, "Network"},
	CategorySecurity: {"🛡️", 2, "Security"},
	CategoryVPN:      {"🔒", 3, "VPN"},
	CategoryAdblock:  {"🚫", 4, "Ad Blocking"},
	CategorySystem:   {"⚙️", 5, "System"},
	CategoryOther:    {"📦", unknownPriority, "Other"},
}

// Priority orders categories; lower comes first.
func (c Category) Priority() int {
	if info, ok := categories[c]; ok {
		return info.priority
	}

	return unknownPriority
}

// Icon returns the category icon.
func (c Category) Icon() string {
	if info, ok := categories[c]; ok {
		return info.icon
	}

	return defaultIcon
}

// Name returns the untranslated display name of the category.
func (c Category) Name() string {
	if info, ok := categories[c]; ok {
		return info.name
	}

	return string(c)
}

type known struct {
	category Category
	icon     string
	// helper is true for configuration scripts without a long running process
	helper bool
}

var knownServices = map[string]known{
	"dnsmasq":         {CategoryNetwork, "🌐", false},
	"network":         {CategoryNetwork, "🔌", true},
	"odhcpd":          {CategoryNetwork, "📡", false},
	"uhttpd":          {CategoryNetwork, "🌍", false},
	"nginx":           {CategoryNetwork, "🌍", false},
	"squid":           {CategoryNetwork, "🦑", false},
	"packet_steering": {CategoryNetwork, "📡", true},

	"firewall": {CategorySecurity, "🔥", true},
	"dropbear": {CategorySecurity, "🔐", false},
	"openssh":  {CategorySecurity, "🔐", false},
	"sshd":     {CategorySecurity, "🔐", false},

	"openvpn":     {CategoryVPN, "🔒", false},
	"wireguard":   {CategoryVPN, "🔒", true},
	"zerotier":    {CategoryVPN, "🔒", false},
	"tailscale":   {CategoryVPN, "🔒", false},
	"shadowsocks": {CategoryVPN, "🔒", false},
	"v2ray":       {CategoryVPN, "🔒", false},
	"xray":        {CategoryVPN, "🔒", false},
	"clash":       {CategoryVPN, "🔒", false},
	"passwall":    {CategoryVPN, "🔒", false},
	"passwall2":   {CategoryVPN, "🔒", false},
	"ssr":         {CategoryVPN, "🔒", false},
	"trojan":      {CategoryVPN, "🔒", false},
	"singbox":     {CategoryVPN, "🔒", false},
	"sing-box":    {CategoryVPN, "🔒", false},
	"podkop":      {CategoryVPN, "🔒", true},

	"adblock":     {CategoryAdblock, "🚫", false},
	"adguardhome": {CategoryAdblock, "🛡️", false},
	"pihole":      {CategoryAdblock, "🕳️", false},

	"cron":    {CategorySystem, "⏰", false},
	"sysntpd": {CategorySystem, "🕐", false},
	"ntpd":    {CategorySystem, "🕐", false},
	"log":     {CategorySystem, "📝", true},
	"syslog":  {CategorySystem, "📝", false},
	"rpcd":    {CategorySystem, "⚡", false},
	"ubus":    {CategorySystem, "🔗", false},

	"boot":         {CategorySystem, "🚀", true},
	"done":         {CategorySystem, "✅", true},
	"sysfixtime":   {CategorySystem, "🕐", true},
	"sysctl":       {CategorySystem, "⚙️", true},
	"led":          {CategorySystem, "💡", true},
	"gpio_switch":  {CategorySystem, "🔘", true},
	"umount":       {CategorySystem, "💾", true},
	"urandom_seed": {CategorySystem, "🎲", true},
	"ucitrack":     {CategorySystem, "📋", true},
	"bootcount":    {CategorySystem, "🔢", true},
}

var descriptions = map[string]string{
	"dnsmasq":  "DNS and DHCP server",
	"firewall": "Firewall",
	"network":  "Network interfaces",
	"uhttpd":   "LuCI web server",
	"odhcpd":   "DHCPv6 server",
	"dropbear": "SSH access",
	"sysntpd":  "Time sync",
	"cron":     "Task scheduler",
}

// KnownNames returns the names of all known services, sorted.
func KnownNames() []string {
	names := make([]string, 0, len(knownServices))
	for name := range knownServices {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// IsKnown reports whether name is in the built-in catalog.
func IsKnown(name string) bool {
	_, ok := knownServices[name]

	return ok
}

// IsDaemon reports whether name runs a long lived process. Unknown services are
// assumed to be daemons.
func IsDaemon(name string) bool {
	k, ok := knownServices[name]

	return !ok || !k.helper
}

// DisplayName turns an init script name into a title: "sing-box" becomes "Sing Box".
func DisplayName(name string) string {
	replaced := strings.Map(func(r rune) rune {
		if r == '-' || r == '_' {
			return ' '
		}

		return r
	}, name)

	out := []rune(replaced)
	for i, r := range out {
		if (i == 0 || !isWordRune(out[i-1])) && isWordRune(r) {
			out[i] = unicode.ToUpper(r)
		}
	}

	return string(out)
}

func isWordRune(r rune) bool {
	return r == '_' || (r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)))
}

// Description returns the untranslated description of name.
func Description(name string) string {
	if d, ok := descriptions[name]; ok {
		return d
	}

	if k, ok := knownServices[name]; ok {
		switch k.category {
		case CategoryVPN:
			return "VPN service"
		case CategoryAdblock:
			return "Ad blocking"
		case CategoryCustom, CategoryNetwork, CategorySecurity, CategorySystem, CategoryOther:
		}
	}

	return "System service"
}

// Info is the presentation data of one service.
type Info struct {
	Name         string   `json:"name"`
	DisplayName  string   `json:"display_name"`
	Description  string   `json:"description"`
	Category     Category `json:"category"`
	CategoryName string   `json:"category_name"`
	Icon         string   `json:"icon"`
	Installed    bool     `json:"installed"`
	Custom       bool     `json:"custom,omitempty"`
	Watched      bool     `json:"watched"`
}

// Lookup builds the Info of name, translating texts with t.
func Lookup(name string, t func(string) string) Info {
	if t == nil {
		t = func(s string) string { return s }
	}

	category := CategoryOther
	icon := defaultIcon

	if k, ok := knownServices[name]; ok {
		category = k.category
		icon = k.icon
	}

	return Info{
		Name:         name,
		DisplayName:  DisplayName(name),
		Description:  t(Description(name)),
		Category:     category,
		CategoryName: t(category.Name()),
		Icon:         icon,
	}
}

// matches reports whether the lowercase query appears in the searchable text of info.
func (i Info) matches(query string) bool {
	if query == "" {
		return true
	}

	text := strings.ToLower(i.Name + " " + i.DisplayName + " " + i.Description)

	return strings.Contains(text, query)
}

// Entry is one available service as found by discovery.
type Entry struct {
	Name      string `json:"name"`
	Installed bool   `json:"installed"`
}

// Group is a category with its services, in display order.
type Group struct {
	Category Category `json:"category"`
	Name     string   `json:"name"`
	Icon     string   `json:"icon"`
	Services []Info   `json:"services"`
}

// Browse builds the grouped service picker: watched services missing from
// available go to the custom group first, helper scripts are hidden, and the
// rest are grouped by category priority. query filters case-insensitively.
func Browse(available []Entry, watched []string, query string, t func(string) string) []Group {
	query = strings.ToLower(strings.TrimSpace(query))

	watchedSet := make(map[string]bool, len(watched))
	for _, name := range watched {
		watchedSet[name] = true
	}

	availableSet := make(map[string]bool, len(available))
	for _, e := range available {
		availableSet[e.Name] = true
	}

	grouped := make(map[Category][]Info)

	for _, name := range watched {
		if availableSet[name] || !models.IsValidServiceName(name) {
			continue
		}

		info := Lookup(name, t)
		if !info.matches(query) {
			continue
		}

		info.Custom = true
		info.Watched = true
		grouped[CategoryCustom] = append(grouped[CategoryCustom], info)
	}

	for _, e := range available {
		if !IsDaemon(e.Name) {
			continue
		}

		info := Lookup(e.Name, t)
		if !info.matches(query) {
			continue
		}

		info.Installed = e.Installed
		info.Watched = watchedSet[e.Name]
		grouped[info.Category] = append(grouped[info.Category], info)
	}

	return sortGroups(grouped, t)
}

// GroupWatched groups the watched services for the grouped widget layout.
func GroupWatched(watched []string, t func(string) string) []Group {
	grouped := make(map[Category][]Info)

	for _, name := range watched {
		info := Lookup(name, t)
		info.Watched = true
		grouped[info.Category] = append(grouped[info.Category], info)
	}

	return sortGroups(grouped, t)
}

func sortGroups(grouped map[Category][]Info, t func(string) string) []Group {
	if t == nil {
		t = func(s string) string { return s }
	}

	keys := make([]Category, 0, len(grouped))
	for c := range grouped {
		keys = append(keys, c)
	}

	sort.SliceStable(keys, func(i, j int) bool {
		pi, pj := keys[i].Priority(), keys[j].Priority()
		if pi != pj {
			return pi < pj
		}

		return keys[i] < keys[j]
	})

	groups := make([]Group, 0, len(keys))
	for _, c := range keys {
		groups = append(groups, Group{
			Category: c,
			Name:     t(c.Name()),
			Icon:     c.Icon(),
			Services: grouped[c],
		})
	}

	return groups
}
