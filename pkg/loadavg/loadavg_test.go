package loadavg

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proton2025/widgetd/pkg/ubus"
)

func TestParse(t *testing.T) {
	loads, err := Parse("0.52, 0.58, 0.59")
	require.NoError(t, err)
	assert.Equal(t, [3]float64{0.52, 0.58, 0.59}, loads)

	loads, err = Parse("  1.00 2.50 3.75 ")
	require.NoError(t, err)
	assert.Equal(t, [3]float64{1, 2.5, 3.75}, loads)

	for _, bad := range []string{"", "1, 2, 3", "0.5, 0.5", "up 3 days", "0.1, 0.2, 0.3, 0.4"} {
		_, err := Parse(bad)
		require.ErrorIs(t, err, errMalformed, bad)
	}
}

func TestParseCores(t *testing.T) {
	assert.Equal(t, 4, ParseCores("4 x ARMv8 Processor rev 4"))
	assert.Equal(t, 2, ParseCores("MediaTek MT7621 ver:1 eco:3 (2X MIPS)"))
	assert.Equal(t, 1, ParseCores("Qualcomm Atheros QCA9558"))
	assert.Equal(t, 1, ParseCores("0 x nothing"))
}

func TestLevelAndBar(t *testing.T) {
	assert.Equal(t, LevelLow, LevelOf(0.69, 1))
	assert.Equal(t, LevelMedium, LevelOf(0.7, 1))
	assert.Equal(t, LevelHigh, LevelOf(1.2, 1))
	assert.Equal(t, LevelLow, LevelOf(2.5, 4))
	assert.Equal(t, LevelMedium, LevelOf(0.9, 0))

	assert.InDelta(t, 25.0, BarWidth(0.5, 1), 0.001)
	assert.InDelta(t, 100.0, BarWidth(10, 2), 0.001)
	assert.InDelta(t, 12.5, BarWidth(1, 4), 0.001)
}

func TestBuild(t *testing.T) {
	r := Build([3]float64{0.5, 1.0, 3.0}, 2, strings.ToUpper)

	assert.Equal(t, 2, r.Cores)
	assert.Equal(t, "1 MIN", r.Items[0].Label)
	assert.Equal(t, "0.50", r.Items[0].Text)
	assert.Equal(t, LevelLow, r.Items[0].Level)
	assert.Equal(t, LevelLow, r.Items[1].Level)
	assert.Equal(t, LevelHigh, r.Items[2].Level)
	assert.InDelta(t, 75.0, r.Items[2].BarWidth, 0.001)
}

type fakeSystem struct {
	load  [3]uint64
	cores string
	execs int
	err   error
}

func (f *fakeSystem) SystemInfo(context.Context) (*ubus.SystemInfo, error) {
	if f.err != nil {
		return nil, f.err
	}

	return &ubus.SystemInfo{Load: f.load}, nil
}

func (f *fakeSystem) Exec(context.Context, string, []string) (*ubus.ExecResult, error) {
	f.execs++

	return &ubus.ExecResult{Stdout: f.cores}, nil
}

func TestUbusSampler(t *testing.T) {
	sys := &fakeSystem{load: [3]uint64{65536, 131072, 32768}, cores: "4\n"}
	s := NewUbusSampler(sys)

	loads, cores, err := s.Sample(context.Background())
	require.NoError(t, err)
	assert.Equal(t, [3]float64{1, 2, 0.5}, loads)
	assert.Equal(t, 4, cores)

	_, _, err = s.Sample(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sys.execs, "core count is cached")

	sys.err = errors.New("down")
	_, _, err = s.Sample(context.Background())
	require.Error(t, err)
}

func TestUbusSamplerBadCoreCount(t *testing.T) {
	sys := &fakeSystem{cores: "garbage"}

	_, cores, err := NewUbusSampler(sys).Sample(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, cores)
}
