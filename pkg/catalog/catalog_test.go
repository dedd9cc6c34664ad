package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func upper(s string) string { return strings.ToUpper(s) }

func TestDisplayName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"sing-box", "Sing Box"},
		{"packet_steering", "Packet Steering"},
		{"dnsmasq", "Dnsmasq"},
		{"passwall2", "Passwall2"},
		{"a-b_c", "A B C"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, DisplayName(tt.in), tt.in)
	}
}

func TestDescription(t *testing.T) {
	assert.Equal(t, "DNS and DHCP server", Description("dnsmasq"))
	assert.Equal(t, "VPN service", Description("openvpn"))
	assert.Equal(t, "Ad blocking", Description("adguardhome"))
	assert.Equal(t, "System service", Description("rpcd"))
	assert.Equal(t, "System service", Description("something-new"))
}

func TestLookup(t *testing.T) {
	info := Lookup("wireguard", upper)
	assert.Equal(t, CategoryVPN, info.Category)
	assert.Equal(t, "🔒", info.Icon)
	assert.Equal(t, "VPN SERVICE", info.Description)
	assert.Equal(t, "VPN", info.CategoryName)
	assert.Equal(t, "Wireguard", info.DisplayName)

	unknown := Lookup("frobnicator", nil)
	assert.Equal(t, CategoryOther, unknown.Category)
	assert.Equal(t, "📦", unknown.Icon)
	assert.Equal(t, "Other", unknown.CategoryName)
}

func TestIsDaemon(t *testing.T) {
	assert.True(t, IsDaemon("dnsmasq"))
	assert.False(t, IsDaemon("firewall"))
	assert.False(t, IsDaemon("boot"))
	assert.True(t, IsDaemon("not-in-catalog"))
}

func TestCategoryPriority(t *testing.T) {
	assert.Equal(t, 0, CategoryCustom.Priority())
	assert.Equal(t, 3, CategoryVPN.Priority())
	assert.Equal(t, 99, Category("bogus").Priority())
	assert.Equal(t, "📦", Category("bogus").Icon())
}

func TestBrowseGroupsByPriority(t *testing.T) {
	available := []Entry{
		{Name: "cron", Installed: true},
		{Name: "dnsmasq", Installed: true},
		{Name: "firewall", Installed: true},
		{Name: "openvpn"},
		{Name: "frobnicator", Installed: true},
	}

	groups := Browse(available, []string{"dnsmasq", "mydaemon", "bad name"}, "", nil)

	var order []Category
	for _, g := range groups {
		order = append(order, g.Category)
	}

	assert.Equal(t, []Category{CategoryCustom, CategoryNetwork, CategoryVPN, CategorySystem, CategoryOther}, order)

	require.Len(t, groups[0].Services, 1)
	assert.Equal(t, "mydaemon", groups[0].Services[0].Name)
	assert.True(t, groups[0].Services[0].Custom)

	dnsmasq := groups[1].Services[0]
	assert.True(t, dnsmasq.Watched)
	assert.True(t, dnsmasq.Installed)

	assert.False(t, groups[2].Services[0].Installed)

	for _, g := range groups {
		for _, s := range g.Services {
			assert.NotEqual(t, "firewall", s.Name)
		}
	}
}

func TestBrowseFiltersByQuery(t *testing.T) {
	available := []Entry{{Name: "dnsmasq"}, {Name: "sing-box"}, {Name: "cron"}}

	groups := Browse(available, nil, "  SING box ", nil)
	require.Len(t, groups, 1)
	require.Len(t, groups[0].Services, 1)
	assert.Equal(t, "sing-box", groups[0].Services[0].Name)

	groups = Browse(available, nil, "dhcp", nil)
	require.Len(t, groups, 1)
	assert.Equal(t, "dnsmasq", groups[0].Services[0].Name)

	assert.Empty(t, Browse(available, nil, "nothing-matches", nil))
}

func TestGroupWatched(t *testing.T) {
	groups := GroupWatched([]string{"cron", "dropbear", "dnsmasq", "odhcpd"}, nil)
	require.Len(t, groups, 3)
	assert.Equal(t, CategoryNetwork, groups[0].Category)
	assert.Equal(t, []string{"dnsmasq", "odhcpd"}, []string{groups[0].Services[0].Name, groups[0].Services[1].Name})
	assert.Equal(t, CategorySecurity, groups[1].Category)
	assert.Equal(t, CategorySystem, groups[2].Category)
}

func TestKnownNamesSorted(t *testing.T) {
	names := KnownNames()
	assert.Contains(t, names, "dnsmasq")
	assert.True(t, IsKnown("sing-box"))
	assert.IsNonDecreasing(t, names)
}
