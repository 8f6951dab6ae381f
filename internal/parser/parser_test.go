package parser

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cellbots/replay/pkg/core"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestParser(t *testing.T) *Parser {
	t.Helper()
	p, err := NewParser(slog.Default())
	require.NoError(t, err)
	return p
}

const sampleLog = `[
  {"event":"addbot","botid":"B1","pos":{"x":1,"y":0,"z":2},"dir":{"vx":1,"vy":0,"vz":0},"ts":0,"color":"FF8000"},
  {"event":"addbot","botid":"B2","pos":{"x":0,"y":0,"z":0},"dir":{"vx":0,"vy":0,"vz":1},"ts":0,"color":""},
  {"event":"hello","botid":"B9"},
  {"notify":"update","msg":[
    {"event":"move","botid":"B1","ts":0,"from":{"x":1,"y":0,"z":2},"to":{"x":2,"y":0,"z":2}},
    {"event":"spin","botid":"B2","ts":400,"duration":800,"from":{"vx":0,"vy":0,"vz":1},"to":{"vx":1,"vy":0,"vz":0}},
    {"event":"blink","botid":"B2"},
    {"event":"spin2","botid":"B1","ts":1000,
     "from":{"x":2,"y":0,"z":2,"vx":1,"vy":0,"vz":0},
     "to":{"x":1,"y":0,"z":3,"vx":0,"vy":0,"vz":1},
     "center":{"x":1,"y":0,"z":2}},
    {"event":"removebot","botid":"B2","ts":2000}
  ]},
  {"notify":"status","msg":"ignored"}
]`

func TestParseBytes_SampleLog(t *testing.T) {
	p := newTestParser(t)

	events, err := p.ParseBytes([]byte(sampleLog))
	require.NoError(t, err)

	orange := core.RGB{R: 1, G: 128.0 / 255.0, B: 0}
	want := []core.Event{
		core.AddBot{
			ID:        "B1",
			Position:  core.SourceVector{X: 1, Y: 0, Z: 2},
			Direction: core.SourceVector{X: 1},
			ColorHex:  "FF8000",
			Color:     &orange,
		},
		core.AddBot{
			ID:        "B2",
			Direction: core.SourceVector{Z: 1},
		},
		core.Move{
			ID:   "B1",
			From: core.SourceVector{X: 1, Z: 2},
			To:   core.SourceVector{X: 2, Z: 2},
		},
		core.Spin{
			ID:            "B2",
			FromDirection: core.SourceVector{Z: 1},
			ToDirection:   core.SourceVector{X: 1},
			TimestampMs:   400,
			DurationMs:    core.Ms(800),
		},
		core.SpinAround{
			ID:            "B1",
			FromPoint:     core.SourceVector{X: 2, Z: 2},
			ToPoint:       core.SourceVector{X: 1, Z: 3},
			FromDirection: core.SourceVector{X: 1},
			ToDirection:   core.SourceVector{Z: 1},
			Center:        core.SourceVector{X: 1, Z: 2},
			TimestampMs:   1000,
		},
		core.RemoveBot{ID: "B2", TimestampMs: 2000},
	}

	if diff := cmp.Diff(want, events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestParseBytes_DurationOptional(t *testing.T) {
	p := newTestParser(t)

	events, err := p.ParseBytes([]byte(`[{"notify":"update","msg":[
		{"event":"move","botid":"B1","ts":0,"from":{"x":0,"y":0,"z":0},"to":{"x":1,"y":0,"z":0}},
		{"event":"move","botid":"B1","ts":0,"duration":0,"from":{"x":0,"y":0,"z":0},"to":{"x":1,"y":0,"z":0}}
	]}]`))
	require.NoError(t, err)
	require.Len(t, events, 2)

	first := events[0].(core.Move)
	assert.Nil(t, first.DurationMs)
	assert.Equal(t, 400.0, first.Duration(400))

	second := events[1].(core.Move)
	require.NotNil(t, second.DurationMs)
	assert.Equal(t, 400.0, second.Duration(400))
}

func TestParseBytes_NumericBotID(t *testing.T) {
	p := newTestParser(t)

	events, err := p.ParseBytes([]byte(`[
		{"event":"addbot","botid":12,"pos":{"x":0,"y":0,"z":0},"dir":{"vx":1,"vy":0,"vz":0}}
	]`))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, core.AgentID("12"), events[0].Agent())
}

func TestParseBytes_Empty(t *testing.T) {
	p := newTestParser(t)

	events, err := p.ParseBytes([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestParseBytes_Malformed(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantIndex int
		wantMsg   int
		wantField string
	}{
		{
			name:      "missing pos",
			input:     `[{"event":"addbot","botid":"B1","dir":{"vx":1,"vy":0,"vz":0}}]`,
			wantIndex: 0, wantMsg: -1, wantField: "pos",
		},
		{
			name:      "missing botid",
			input:     `[{"event":"addbot","pos":{"x":0,"y":0,"z":0},"dir":{"vx":1,"vy":0,"vz":0}}]`,
			wantIndex: 0, wantMsg: -1, wantField: "botid",
		},
		{
			name:      "empty botid",
			input:     `[{"event":"addbot","botid":"","pos":{"x":0,"y":0,"z":0},"dir":{"vx":1,"vy":0,"vz":0}}]`,
			wantIndex: 0, wantMsg: -1, wantField: "botid",
		},
		{
			name:      "wrong coordinate type",
			input:     `[{"event":"addbot","botid":"B1","pos":{"x":"a","y":0,"z":0},"dir":{"vx":1,"vy":0,"vz":0}}]`,
			wantIndex: 0, wantMsg: -1, wantField: "pos.x",
		},
		{
			name:      "bad color",
			input:     `[{"event":"addbot","botid":"B1","pos":{"x":0,"y":0,"z":0},"dir":{"vx":1,"vy":0,"vz":0},"color":"ZZ0000"}]`,
			wantIndex: 0, wantMsg: -1, wantField: "color",
		},
		{
			name: "spin2 without center",
			input: `[{"notify":"update","msg":[{"event":"move","botid":"B1","ts":0,"from":{"x":0,"y":0,"z":0},"to":{"x":1,"y":0,"z":0}}]},
				{"notify":"update","msg":[{"event":"spin2","botid":"B1","ts":0,
				"from":{"x":0,"y":0,"z":0,"vx":1,"vy":0,"vz":0},"to":{"x":0,"y":0,"z":0,"vx":1,"vy":0,"vz":0}}]}]`,
			wantIndex: 1, wantMsg: 0, wantField: "center",
		},
		{
			name:      "spin with point instead of direction",
			input:     `[{"notify":"update","msg":[{"event":"spin","botid":"B1","ts":0,"from":{"x":1,"y":0,"z":0},"to":{"vx":1,"vy":0,"vz":0}}]}]`,
			wantIndex: 0, wantMsg: 0, wantField: "from.vx",
		},
		{
			name:      "move without ts",
			input:     `[{"notify":"update","msg":[{"event":"move","botid":"B1","from":{"x":0,"y":0,"z":0},"to":{"x":1,"y":0,"z":0}}]}]`,
			wantIndex: 0, wantMsg: 0, wantField: "ts",
		},
		{
			name:      "negative duration",
			input:     `[{"notify":"update","msg":[{"event":"move","botid":"B1","ts":0,"duration":-5,"from":{"x":0,"y":0,"z":0},"to":{"x":1,"y":0,"z":0}}]}]`,
			wantIndex: 0, wantMsg: 0, wantField: "duration",
		},
		{
			name:      "update without msg",
			input:     `[{"notify":"update"}]`,
			wantIndex: 0, wantMsg: -1, wantField: "msg",
		},
	}

	p := newTestParser(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.ParseBytes([]byte(tt.input))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedInput))

			var me *MalformedInputError
			require.True(t, errors.As(err, &me))
			assert.Equal(t, tt.wantIndex, me.Index)
			assert.Equal(t, tt.wantMsg, me.Msg)
			assert.Equal(t, tt.wantField, me.Field)
			assert.NotEmpty(t, me.Reason)
		})
	}
}

func TestParseBytes_NotAnArray(t *testing.T) {
	p := newTestParser(t)

	_, err := p.ParseBytes([]byte(`{"event":"addbot"}`))
	assert.ErrorIs(t, err, ErrMalformedInput)

	_, err = p.ParseBytes([]byte(`[{"event":"addbot",`))
	require.ErrorIs(t, err, ErrMalformedInput)
	assert.Contains(t, err.Error(), "invalid JSON")
}

func TestMalformedInputError_Path(t *testing.T) {
	tests := []struct {
		err  MalformedInputError
		want string
	}{
		{MalformedInputError{Index: 3, Msg: -1, Field: "pos.x"}, "[3].pos.x"},
		{MalformedInputError{Index: 1, Msg: 2, Field: "center"}, "[1].msg[2].center"},
		{MalformedInputError{Index: 0, Msg: 4}, "[0].msg[4]"},
		{MalformedInputError{Index: -1, Msg: -1}, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.Path())
	}

	e := &MalformedInputError{Index: 2, Msg: -1, Field: "color", Reason: "bad"}
	assert.Equal(t, "malformed input at [2].color: bad", e.Error())
	e = &MalformedInputError{Index: -1, Msg: -1, Reason: "bad"}
	assert.Equal(t, "malformed input: bad", e.Error())
}

func TestParseFile(t *testing.T) {
	p := newTestParser(t)

	path := filepath.Join(t.TempDir(), "blender.txt")
	require.NoError(t, os.WriteFile(path, []byte(sampleLog), 0o644))

	events, err := p.ParseFile(path)
	require.NoError(t, err)
	assert.Len(t, events, 6)

	_, err = p.ParseFile(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrMalformedInput))
}

func TestParse_Reader(t *testing.T) {
	p := newTestParser(t)
	events, err := p.Parse(strings.NewReader(sampleLog))
	require.NoError(t, err)
	assert.Equal(t, core.KindAddBot, events[0].Kind())
	assert.Equal(t, core.KindRemoveBot, events[len(events)-1].Kind())
}

func TestPointerTokens(t *testing.T) {
	assert.Nil(t, pointerTokens(""))
	assert.Nil(t, pointerTokens("#"))
	assert.Equal(t, []string{"0", "msg", "1"}, pointerTokens("/0/msg/1"))
	assert.Equal(t, []string{"a/b", "c~d"}, pointerTokens("/a~1b/c~0d"))
}

func TestMissingProperty(t *testing.T) {
	name, ok := missingProperty(`missing properties: "pos", "dir"`)
	assert.True(t, ok)
	assert.Equal(t, "pos", name)

	name, ok = missingProperty(`missing properties: 'center'`)
	assert.True(t, ok)
	assert.Equal(t, "center", name)

	_, ok = missingProperty("expected number, but got string")
	assert.False(t, ok)
}
