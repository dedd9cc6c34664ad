package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToRemote(t *testing.T) {
	tests := []struct {
		key, value       string
		wantKey, wantVal string
		ok               bool
	}{
		{KeyThemeMode, "dark", "mode", "dark", true},
		{KeyAnimations, "true", "animations", "1", true},
		{KeyAnimations, "false", "animations", "0", true},
		{KeyTableWrap, "garbage", "table_wrap", "0", true},
		{KeyZoom, "110", "zoom", "110", true},
		{KeyWatchList, `["dnsmasq"]`, "", "", false},
	}

	for _, tt := range tests {
		k, v, ok := ToRemote(tt.key, tt.value)
		assert.Equal(t, tt.ok, ok, tt.key)
		assert.Equal(t, tt.wantKey, k, tt.key)
		assert.Equal(t, tt.wantVal, v, tt.key)
	}
}

func TestToLocal(t *testing.T) {
	k, v, ok := ToLocal("services_widget", "1")
	assert.True(t, ok)
	assert.Equal(t, KeyServicesWidget, k)
	assert.Equal(t, "true", v)

	_, v, _ = ToLocal("temp_widget", "0")
	assert.Equal(t, "false", v)

	k, v, ok = ToLocal("accent", "#ff0000")
	assert.True(t, ok)
	assert.Equal(t, KeyAccentColor, k)
	assert.Equal(t, "#ff0000", v)

	_, _, ok = ToLocal("unknown_option", "x")
	assert.False(t, ok)
}

func TestKeyMapIsBijective(t *testing.T) {
	assert.Len(t, localToRemote, 10)
	assert.Len(t, remoteToLocal, 10)

	for local, remote := range localToRemote {
		assert.Equal(t, local, remoteToLocal[remote])
		assert.True(t, IsMapped(local))
	}
}

func TestEnabled(t *testing.T) {
	assert.True(t, Enabled("", false))
	assert.True(t, Enabled("true", true))
	assert.False(t, Enabled("false", true))
	assert.False(t, Enabled("0", true))
}
