// Package parser decodes a simulation log into core events.
//
// A log is a JSON array. Agents are introduced by top-level records
//
//	{"event":"addbot","botid":"B1","pos":{"x":..},"dir":{"vx":..},"color":"FF8000"}
//
// and motion arrives in batches
//
//	{"notify":"update","msg":[{"event":"move","botid":"B1","ts":0,"from":{..},"to":{..}}]}
//
// Other top-level records and message kinds are skipped.
package parser

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/cellbots/replay/pkg/core"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "replay-log.json"

// Parser validates and decodes simulation logs.
type Parser struct {
	logger *slog.Logger
	schema *jsonschema.Schema
}

// NewParser compiles the log schema.
func NewParser(logger *slog.Logger) (*Parser, error) {
	if logger == nil {
		logger = slog.Default()
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft7
	if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("add log schema: %w", err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile log schema: %w", err)
	}

	return &Parser{logger: logger, schema: schema}, nil
}

// ParseFile reads and decodes the log at path.
func (p *Parser) ParseFile(path string) ([]core.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer f.Close()
	return p.Parse(f)
}

// Parse decodes a whole log from r.
func (p *Parser) Parse(r io.Reader) ([]core.Event, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	return p.ParseBytes(data)
}

// ParseBytes validates data against the log schema and returns the events in
// input order, with update batches flattened.
func (p *Parser) ParseBytes(data []byte) ([]core.Event, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, malformed(-1, -1, "", "invalid JSON: %v", err)
	}
	if err := p.schema.Validate(doc); err != nil {
		return nil, fromValidation(err)
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return nil, malformed(-1, -1, "", "decode: %v", err)
	}

	events := make([]core.Event, 0, len(elems))
	for i, raw := range elems {
		var head rawHeader
		if err := json.Unmarshal(raw, &head); err != nil {
			return nil, malformed(i, -1, "", "decode: %v", err)
		}

		switch {
		case isConst(head.Event, string(core.KindAddBot)):
			var rec rawAddBot
			if err := json.Unmarshal(raw, &rec); err != nil {
				return nil, malformed(i, -1, "", "decode addbot: %v", err)
			}
			ev, err := decodeAddBot(i, rec)
			if err != nil {
				return nil, err
			}
			events = append(events, ev)

		case isConst(head.Notify, "update"):
			var batch rawBatch
			if err := json.Unmarshal(raw, &batch); err != nil {
				return nil, malformed(i, -1, "msg", "decode batch: %v", err)
			}
			for j, m := range batch.Msg {
				ev, ok, err := decodeMessage(m)
				if err != nil {
					return nil, malformed(i, j, "", "decode message: %v", err)
				}
				if !ok {
					p.logger.Debug("skipping message", "index", i, "msg", j)
					continue
				}
				events = append(events, ev)
			}

		default:
			p.logger.Debug("skipping record", "index", i)
		}
	}

	p.logger.Debug("log parsed", "records", len(elems), "events", len(events))
	return events, nil
}

func decodeAddBot(index int, rec rawAddBot) (core.AddBot, error) {
	ev := core.AddBot{
		ID:        core.AgentID(rec.BotID),
		Position:  rec.Pos.point(),
		Direction: rec.Dir.direction(),
		ColorHex:  rec.Color,
	}
	if rec.Color != "" {
		rgb, err := core.ParseHexColor(rec.Color)
		if err != nil {
			return core.AddBot{}, malformed(index, -1, "color", "%v", err)
		}
		ev.Color = &rgb
	}
	return ev, nil
}

func decodeMessage(raw json.RawMessage) (core.Event, bool, error) {
	var head rawHeader
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, false, err
	}

	var kind core.EventKind
	for _, k := range []core.EventKind{core.KindMove, core.KindSpin, core.KindSpinAround, core.KindRemoveBot} {
		if isConst(head.Event, string(k)) {
			kind = k
		}
	}
	if kind == "" {
		return nil, false, nil
	}

	var m rawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, false, err
	}
	id := core.AgentID(m.BotID)

	switch kind {
	case core.KindMove:
		return core.Move{
			ID:          id,
			From:        m.From.point(),
			To:          m.To.point(),
			TimestampMs: m.TS,
			DurationMs:  m.Duration,
		}, true, nil
	case core.KindSpin:
		return core.Spin{
			ID:            id,
			FromDirection: m.From.direction(),
			ToDirection:   m.To.direction(),
			TimestampMs:   m.TS,
			DurationMs:    m.Duration,
		}, true, nil
	case core.KindSpinAround:
		return core.SpinAround{
			ID:            id,
			FromPoint:     m.From.point(),
			ToPoint:       m.To.point(),
			FromDirection: m.From.direction(),
			ToDirection:   m.To.direction(),
			Center:        m.Center.point(),
			TimestampMs:   m.TS,
			DurationMs:    m.Duration,
		}, true, nil
	default:
		return core.RemoveBot{ID: id, TimestampMs: m.TS}, true, nil
	}
}

// rawHeader peeks at the discriminators without committing to a layout.
type rawHeader struct {
	Event  json.RawMessage `json:"event"`
	Notify json.RawMessage `json:"notify"`
}

func isConst(raw json.RawMessage, want string) bool {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return false
	}
	return s == want
}

type rawAddBot struct {
	BotID botID      `json:"botid"`
	Pos   *rawVector `json:"pos"`
	Dir   *rawVector `json:"dir"`
	TS    float64    `json:"ts"`
	Color string     `json:"color"`
}

type rawBatch struct {
	Msg []json.RawMessage `json:"msg"`
}

type rawMessage struct {
	BotID    botID      `json:"botid"`
	TS       float64    `json:"ts"`
	Duration *float64   `json:"duration"`
	From     *rawVector `json:"from"`
	To       *rawVector `json:"to"`
	Center   *rawVector `json:"center"`
}

// rawVector carries both spellings the logger uses: x/y/z for points and
// vx/vy/vz for directions. spin2 endpoints set all six.
type rawVector struct {
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	Z  float64 `json:"z"`
	VX float64 `json:"vx"`
	VY float64 `json:"vy"`
	VZ float64 `json:"vz"`
}

func (v *rawVector) point() core.SourceVector {
	if v == nil {
		return core.SourceVector{}
	}
	return core.SourceVector{X: v.X, Y: v.Y, Z: v.Z}
}

func (v *rawVector) direction() core.SourceVector {
	if v == nil {
		return core.SourceVector{}
	}
	return core.SourceVector{X: v.VX, Y: v.VY, Z: v.VZ}
}

// botID accepts both "B12" and 12.
type botID string

func (b *botID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*b = botID(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("botid: %w", err)
	}
	*b = botID(strconv.FormatFloat(f, 'f', -1, 64))
	return nil
}
