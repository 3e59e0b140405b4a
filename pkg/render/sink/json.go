package sink

import (
	"encoding/json"

	"github.com/matzehuels/kitbash/pkg/compose"
)

type jsonRecord struct {
	Name   string     `json:"name"`
	Scale  float64    `json:"scale"`
	Offset jsonOffset `json:"offset"`
}

type jsonOffset struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// RenderJSON encodes placement records as a pretty-printed JSON array in
// paint order:
//
//	[{"name": "head", "scale": 1.5, "offset": {"x": 26, "y": 26}}]
//
// An empty slice encodes as [].
func RenderJSON(records []compose.Record) ([]byte, error) {
	out := make([]jsonRecord, len(records))
	for i, r := range records {
		out[i] = jsonRecord{
			Name:   r.Name,
			Scale:  r.Scale,
			Offset: jsonOffset{X: r.Offset.X, Y: r.Offset.Y},
		}
	}
	return json.MarshalIndent(out, "", "  ")
}

// ParseJSON decodes records produced by [RenderJSON].
func ParseJSON(data []byte) ([]compose.Record, error) {
	var in []jsonRecord
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, err
	}
	records := make([]compose.Record, len(in))
	for i, r := range in {
		records[i] = compose.Record{
			Name:   r.Name,
			Scale:  r.Scale,
			Offset: compose.Point{X: r.Offset.X, Y: r.Offset.Y},
		}
	}
	return records, nil
}
