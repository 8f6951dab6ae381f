package timeline

import (
	"sync"
	"testing"

	"github.com/cellbots/replay/pkg/core"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateInstance(t *testing.T) {
	tl := New()

	h, err := tl.CreateInstance("b1")
	require.NoError(t, err)
	assert.Equal(t, "b1", string(h))

	_, err = tl.CreateInstance("b1")
	assert.ErrorIs(t, err, ErrDuplicateInstance)
	run := tl.Snapshot(core.RunInfo{})
	assert.Len(t, run.Agents, 1)

	_, err = tl.CreateInstance("")
	assert.Error(t, err)
}

func TestSetChannel_UnknownHandle(t *testing.T) {
	tl := New()
	err := tl.SetChannel("ghost", core.ChannelPosition, 1, [3]float64{})
	assert.Error(t, err)
	assert.Error(t, tl.SetInstanceColor("ghost", core.RGB{}))
	assert.Error(t, tl.PlaceInstance("ghost", core.TargetVector{}, 0))
}

func TestSetChannel_LastWriteWins(t *testing.T) {
	tl := New()
	h, err := tl.CreateInstance("b1")
	require.NoError(t, err)

	require.NoError(t, tl.SetChannel(h, core.ChannelPosition, 10, [3]float64{1, 2, 3}))
	require.NoError(t, tl.SetChannel(h, core.ChannelPosition, 10, [3]float64{4, 5, 6}))

	v, ok := tl.Lookup("b1", core.ChannelPosition, 10)
	require.True(t, ok)
	assert.Equal(t, [3]float64{4, 5, 6}, v)
	assert.Len(t, tl.Curve("b1", core.ChannelPosition), 1)
	assert.Equal(t, 1, tl.KeyframeCount())
}

func TestLookup_Missing(t *testing.T) {
	tl := New()
	h, _ := tl.CreateInstance("b1")
	require.NoError(t, tl.SetChannel(h, core.ChannelPosition, 1, [3]float64{}))

	_, ok := tl.Lookup("b1", core.ChannelOrientation, 1)
	assert.False(t, ok)
	_, ok = tl.Lookup("b1", core.ChannelPosition, 2)
	assert.False(t, ok)
	_, ok = tl.Lookup("b2", core.ChannelPosition, 1)
	assert.False(t, ok)
	assert.Nil(t, tl.Curve("b2", core.ChannelPosition))
}

func TestCurve_SortedByFrame(t *testing.T) {
	tl := New()
	h, _ := tl.CreateInstance("b1")
	for _, f := range []int{30, 1, 12, 5} {
		require.NoError(t, tl.SetChannel(h, core.ChannelOrientation, f, core.YawEuler(float64(f))))
	}

	want := []core.Keyframe{
		{Entity: "b1", Channel: core.ChannelOrientation, Frame: 1, Value: [3]float64{0, 0, 1}},
		{Entity: "b1", Channel: core.ChannelOrientation, Frame: 5, Value: [3]float64{0, 0, 5}},
		{Entity: "b1", Channel: core.ChannelOrientation, Frame: 12, Value: [3]float64{0, 0, 12}},
		{Entity: "b1", Channel: core.ChannelOrientation, Frame: 30, Value: [3]float64{0, 0, 30}},
	}
	if diff := cmp.Diff(want, tl.Curve("b1", core.ChannelOrientation)); diff != "" {
		t.Errorf("curve mismatch (-want +got):\n%s", diff)
	}
}

func TestSnapshot(t *testing.T) {
	tl := New()
	h1, _ := tl.CreateInstance("b1")
	h2, _ := tl.CreateInstance("b2")

	require.NoError(t, tl.PlaceInstance(h1, core.TargetVector{X: 1, Y: 2}, 0.5))
	require.NoError(t, tl.SetInstanceColor(h2, core.RGB{R: 1}))
	tl.SetColorHex("b2", "FF0000")
	tl.MarkRemoved("b2")

	require.NoError(t, tl.SetChannel(h1, core.ChannelPosition, 3, [3]float64{1, 2, 0}))
	require.NoError(t, tl.SetChannel(h1, core.ChannelPosition, 12, [3]float64{5, 2, 0}))
	require.NoError(t, tl.SetChannel(h2, core.ChannelOrientation, 40, core.YawEuler(1)))

	run := tl.Snapshot(core.RunInfo{Name: "demo", FrameRate: 24})

	assert.Equal(t, "demo", run.Info.Name)
	assert.Equal(t, 3, run.Info.StartFrame)
	assert.Equal(t, 40, run.Info.EndFrame)
	assert.Equal(t, 2, run.Info.AgentCount)
	assert.Equal(t, 3, run.Info.KeyframeCount)

	require.Len(t, run.Agents, 2)
	a1, a2 := run.Agents[0], run.Agents[1]

	assert.Equal(t, core.AgentID("b1"), a1.ID)
	assert.Equal(t, core.TargetVector{X: 1, Y: 2}, a1.RestPosition)
	assert.Equal(t, 0.5, a1.RestHeading)
	assert.Nil(t, a1.Color)
	assert.False(t, a1.Removed)
	assert.Len(t, a1.Position, 2)
	assert.Empty(t, a1.Orientation)

	assert.Equal(t, core.AgentID("b2"), a2.ID)
	require.NotNil(t, a2.Color)
	assert.Equal(t, core.RGB{R: 1}, *a2.Color)
	assert.Equal(t, "FF0000", a2.ColorHex)
	assert.True(t, a2.Removed)
}

func TestSnapshot_Empty(t *testing.T) {
	run := New().Snapshot(core.RunInfo{})
	assert.Zero(t, run.Info.StartFrame)
	assert.Zero(t, run.Info.EndFrame)
	assert.Empty(t, run.Agents)
}

func TestSnapshot_IsolatedFromLaterWrites(t *testing.T) {
	tl := New()
	h, _ := tl.CreateInstance("b1")
	require.NoError(t, tl.SetInstanceColor(h, core.RGB{G: 1}))
	run := tl.Snapshot(core.RunInfo{})

	require.NoError(t, tl.SetInstanceColor(h, core.RGB{B: 1}))
	require.NoError(t, tl.SetChannel(h, core.ChannelPosition, 1, [3]float64{}))

	assert.Equal(t, core.RGB{G: 1}, *run.Agents[0].Color)
	assert.Empty(t, run.Agents[0].Position)
}

func TestConcurrentReaders(t *testing.T) {
	tl := New()
	h, _ := tl.CreateInstance("b1")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			_ = tl.SetChannel(h, core.ChannelPosition, i, [3]float64{float64(i)})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			tl.Curve("b1", core.ChannelPosition)
			tl.Lookup("b1", core.ChannelPosition, i)
		}
	}()
	wg.Wait()

	assert.Len(t, tl.Curve("b1", core.ChannelPosition), 200)
}
