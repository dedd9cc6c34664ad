package temperature

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/proton2025/widgetd/pkg/models"
	"github.com/proton2025/widgetd/pkg/ubus"
)

var errSensors = errors.New("sensors unavailable")

func newTestMonitor(t *testing.T, src Source, opts ...Option) *Monitor {
	t.Helper()

	m, err := NewMonitor(&Config{
		PollInterval: models.Duration(10 * time.Millisecond),
		FirstDelay:   models.Duration(time.Millisecond),
	}, src, opts...)
	require.NoError(t, err)

	t.Cleanup(func() { _ = m.Stop(context.Background()) })

	return m
}

func TestNewMonitorRequiresSource(t *testing.T) {
	_, err := NewMonitor(nil, nil)
	require.ErrorIs(t, err, errNilSource)
}

func TestUpdateBuildsReadings(t *testing.T) {
	ctrl := gomock.NewController(t)
	src := NewMockSource(ctrl)

	src.EXPECT().Sensors(gomock.Any()).Return([]RawSensor{
		{Name: "cpu_thermal", Path: "/sys/class/thermal/thermal_zone0", Temp: 71600, Peak: 80400},
		{Name: "wifi", Temp: 44400},
	}, nil)

	var updates []Snapshot

	m := newTestMonitor(t, src, WithUpdateHandler(func(s Snapshot) { updates = append(updates, s) }))
	assert.Equal(t, StateLoading, m.Snapshot().State)

	m.Update(context.Background())

	snap := m.Snapshot()
	require.Equal(t, StateReady, snap.State)
	require.Len(t, snap.Sensors, 2)

	cpu := snap.Sensors[0]
	assert.Equal(t, 72, cpu.Temp)
	assert.Equal(t, 80, cpu.Peak)
	assert.Equal(t, LevelHot, cpu.Level)
	assert.Equal(t, "Hot", cpu.Status)
	assert.Equal(t, TypeCPU, cpu.Type)
	assert.Equal(t, "CPU Thermal", cpu.DisplayName)
	assert.Equal(t, "/sys/class/thermal/thermal_zone0", cpu.Key())

	wifi := snap.Sensors[1]
	assert.Equal(t, 44, wifi.Peak, "peak defaults to the current value")
	assert.Equal(t, "wifi", wifi.Key())

	assert.Len(t, updates, 1)
}

func TestEmptyAttemptsThenEmptyState(t *testing.T) {
	ctrl := gomock.NewController(t)
	src := NewMockSource(ctrl)

	src.EXPECT().Sensors(gomock.Any()).Return(nil, nil).Times(2)
	src.EXPECT().Sensors(gomock.Any()).Return(nil, errSensors).Times(1)

	m := newTestMonitor(t, src)

	m.Update(context.Background())
	assert.Equal(t, StateLoading, m.Snapshot().State)

	m.Update(context.Background())
	assert.Equal(t, StateLoading, m.Snapshot().State)

	m.Update(context.Background())
	assert.Equal(t, StateEmpty, m.Snapshot().State)
}

func TestErrorsKeepPreviousReadings(t *testing.T) {
	ctrl := gomock.NewController(t)
	src := NewMockSource(ctrl)

	gomock.InOrder(
		src.EXPECT().Sensors(gomock.Any()).Return([]RawSensor{{Name: "cpu", Temp: 50000}}, nil),
		src.EXPECT().Sensors(gomock.Any()).Return(nil, errSensors).Times(5),
	)

	m := newTestMonitor(t, src)

	for i := 0; i < 6; i++ {
		m.Update(context.Background())
	}

	snap := m.Snapshot()
	assert.Equal(t, StateReady, snap.State)
	require.Len(t, snap.Sensors, 1)
	assert.Equal(t, 50, snap.Sensors[0].Temp)
}

func TestUnchangedReadingsDoNotNotify(t *testing.T) {
	ctrl := gomock.NewController(t)
	src := NewMockSource(ctrl)

	src.EXPECT().Sensors(gomock.Any()).Return([]RawSensor{{Name: "cpu", Temp: 50000}}, nil).Times(2)

	var count int

	m := newTestMonitor(t, src, WithUpdateHandler(func(Snapshot) { count++ }))
	m.Update(context.Background())
	m.Update(context.Background())

	assert.Equal(t, 1, count)
}

type countingSource struct {
	mu    sync.Mutex
	calls int
}

func (c *countingSource) Sensors(context.Context) ([]RawSensor, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls++

	return []RawSensor{{Name: "cpu", Temp: float64(40000 + c.calls*1000)}}, nil
}

func (c *countingSource) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.calls
}

func TestStartPollsWhileVisible(t *testing.T) {
	src := &countingSource{}
	m := newTestMonitor(t, src)

	require.NoError(t, m.Start(context.Background()))
	require.Eventually(t, func() bool { return src.count() >= 3 }, time.Second, 5*time.Millisecond)

	m.SetVisible(false)
	time.Sleep(20 * time.Millisecond)

	paused := src.count()
	time.Sleep(50 * time.Millisecond)
	assert.LessOrEqual(t, src.count(), paused+1)

	m.SetVisible(true)
	require.Eventually(t, func() bool { return src.count() > paused+1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, m.Stop(context.Background()))
	require.NoError(t, m.Stop(context.Background()))

	stopped := src.count()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, src.count())
}

func TestUbusSource(t *testing.T) {
	ctrl := gomock.NewController(t)
	rpc := NewMockRPC(ctrl)

	rpc.EXPECT().Call(gomock.Any(), "luci.proton-temp", "getSensors", gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _ string, _, out any) error {
			resp, ok := out.(*getSensorsResponse)
			require.True(t, ok)

			temp, peak := 52000.0, 61000.0
			resp.Sensors = []rpcSensor{
				{Name: "cpu", Path: "/sys/class/thermal/thermal_zone0", Temp: &temp, Peak: &peak},
				{Name: "broken"},
				{Temp: &temp},
			}

			return nil
		})

	sensors, err := NewUbusSource(rpc, nil).Sensors(context.Background())
	require.NoError(t, err)
	require.Len(t, sensors, 2)
	assert.Equal(t, RawSensor{Name: "cpu", Path: "/sys/class/thermal/thermal_zone0", Temp: 52000, Peak: 61000}, sensors[0])
	assert.Equal(t, "Sensor", sensors[1].Name)
}

func TestUbusSourceProbesThermalZonesWhenEmpty(t *testing.T) {
	ctrl := gomock.NewController(t)
	rpc := NewMockRPC(ctrl)

	rpc.EXPECT().Call(gomock.Any(), gomock.Any(), "getSensors", gomock.Any(), gomock.Any()).Return(nil)
	rpc.EXPECT().FileList(gomock.Any(), "/sys/class/thermal").Return([]ubus.FileEntry{{Name: "thermal_zone0", Type: "directory"}}, nil)

	sensors, err := NewUbusSource(rpc, nil).Sensors(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sensors)
}

func TestHostSourceTracksPeak(t *testing.T) {
	readings := [][]host.TemperatureStat{
		{{SensorKey: "coretemp_core0", Temperature: 60}, {SensorKey: "nvme", Temperature: 0}},
		{{SensorKey: "coretemp_core0", Temperature: 55}},
	}

	h := NewHostSource()
	call := 0
	h.read = func(context.Context) ([]host.TemperatureStat, error) {
		r := readings[call]
		call++

		return r, nil
	}

	first, err := h.Sensors(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.InDelta(t, 60000, first[0].Temp, 0.1)

	second, err := h.Sensors(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 55000, second[0].Temp, 0.1)
	assert.InDelta(t, 60000, second[0].Peak, 0.1)
}

func TestFallbackSource(t *testing.T) {
	ctrl := gomock.NewController(t)
	primary := NewMockSource(ctrl)
	secondary := NewMockSource(ctrl)

	primary.EXPECT().Sensors(gomock.Any()).Return([]RawSensor{{Name: "a", Temp: 1000}}, nil)

	f := NewFallbackSource(primary, secondary)

	got, err := f.Sensors(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a", got[0].Name)

	primary.EXPECT().Sensors(gomock.Any()).Return(nil, errSensors)
	secondary.EXPECT().Sensors(gomock.Any()).Return([]RawSensor{{Name: "b", Temp: 1000}}, nil)

	got, err = f.Sensors(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "b", got[0].Name)

	primary.EXPECT().Sensors(gomock.Any()).Return(nil, errSensors)
	secondary.EXPECT().Sensors(gomock.Any()).Return(nil, nil)

	_, err = f.Sensors(context.Background())
	require.ErrorIs(t, err, errSensors)
}
