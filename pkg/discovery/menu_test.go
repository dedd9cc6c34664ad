package discovery

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const menuPage = `<html><body>
<ul id="topmenu"><li><a href="/cgi-bin/luci/admin/services/outside">x</a></li></ul>
<div id="mainmenu">
  <ul>
    <li><a href="/cgi-bin/luci/admin/services">Services</a></li>
    <li><a href="/cgi-bin/luci/admin/services/services">Services</a></li>
    <li><a href="/cgi-bin/luci/admin/services/openvpn">OpenVPN</a></li>
    <li><a href="/cgi-bin/luci/admin/services/openvpn/edit">OpenVPN edit</a></li>
    <li><a href="/cgi-bin/luci/admin/services/adblock?tab=1">Adblock</a></li>
    <li><a href="/cgi-bin/luci/admin/services/sing%2Dbox#top">sing-box</a></li>
    <li><a href="/cgi-bin/luci/admin/services/bad%20name">bad</a></li>
    <li><a href="/cgi-bin/luci/admin/system/system">System</a></li>
    <li><a>no href</a></li>
  </ul>
</div>
</body></html>`

func TestMenuSlugs(t *testing.T) {
	slugs, err := MenuSlugs(strings.NewReader(menuPage))
	require.NoError(t, err)
	assert.Equal(t, []string{"openvpn", "adblock", "sing-box"}, slugs)
}

func TestMenuSlugsWithoutMainMenu(t *testing.T) {
	slugs, err := MenuSlugs(strings.NewReader(`<a href="/admin/services/ttyd">ttyd</a>`))
	require.NoError(t, err)
	assert.Equal(t, []string{"ttyd"}, slugs)
}

func TestFetchMenu(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cgi-bin/luci/" {
			w.WriteHeader(http.StatusNotFound)

			return
		}

		_, _ = w.Write([]byte(menuPage))
	}))
	defer srv.Close()

	slugs, err := FetchMenu(context.Background(), srv.Client(), srv.URL+"/cgi-bin/luci/")
	require.NoError(t, err)
	assert.Contains(t, slugs, "openvpn")

	_, err = FetchMenu(context.Background(), srv.Client(), srv.URL+"/missing")
	require.ErrorIs(t, err, errMenuStatus)

	_, err = FetchMenu(context.Background(), nil, "")
	require.ErrorIs(t, err, errMenuURLRequired)
}
