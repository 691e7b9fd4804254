package hepmc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Record types, stored in the "type" field of every record.
const (
	TypeEvent    = "event"
	TypeParticle = "particle"
	TypeVertex   = "vertex"
)

// EventRecord is the flat form of an event header. Barcode holds the event
// number; particle and vertex records point back to it.
type EventRecord struct {
	Type    string    `json:"type"`
	No      int       `json:"no"`
	Barcode int       `json:"barcode"`
	Weight  []float64 `json:"weight"`
	Units   []string  `json:"units"`
	XSec    []float64 `json:"xsec"`
}

type ParticleRecord struct {
	Type        string    `json:"type"`
	Event       int       `json:"event"`
	Barcode     int       `json:"barcode"`
	PID         int       `json:"pid"`
	Charge      float64   `json:"charge"`
	Mass        float64   `json:"mass"`
	Momentum    []float64 `json:"momentum"`
	StartVertex int       `json:"start_vertex"`
	EndVertex   int       `json:"end_vertex"`
	Status      int       `json:"status"`
}

type VertexRecord struct {
	Type     string    `json:"type"`
	Event    int       `json:"event"`
	Barcode  int       `json:"barcode"`
	Position []float64 `json:"position"`
}

// Key identifies a particle record inside a store.
func (r ParticleRecord) Key() string { return fmt.Sprintf("%d/%d", r.Event, r.Barcode) }

func (r VertexRecord) Key() string { return fmt.Sprintf("%d/%d", r.Event, r.Barcode) }

// Document bundles the records of one event.
type Document struct {
	Event     EventRecord      `json:"event"`
	Particles []ParticleRecord `json:"particles"`
	Vertices  []VertexRecord   `json:"vertices"`
}

// Encode flattens evt into one event record plus its particle and vertex
// records, each ordered by barcode.
func Encode(evt *Event) (EventRecord, []ParticleRecord, []VertexRecord) {
	er := EventRecord{
		Type:    TypeEvent,
		No:      evt.No,
		Barcode: evt.Number,
		Weight:  append([]float64(nil), evt.Weights...),
		Units:   []string{evt.Units.Momentum, evt.Units.Length},
		XSec:    []float64{evt.XSec.Value, evt.XSec.Error},
	}

	particles := make([]ParticleRecord, 0, evt.NumParticles())
	for _, p := range evt.Particles() {
		particles = append(particles, ParticleRecord{
			Type:        TypeParticle,
			Event:       evt.Number,
			Barcode:     p.Barcode,
			PID:         p.PID,
			Charge:      p.Charge,
			Mass:        p.Mass,
			Momentum:    append([]float64(nil), p.Momentum[:]...),
			StartVertex: p.Start,
			EndVertex:   p.End,
			Status:      p.Status,
		})
	}

	vertices := make([]VertexRecord, 0, evt.NumVertices())
	for _, v := range evt.Vertices() {
		vertices = append(vertices, VertexRecord{
			Type:     TypeVertex,
			Event:    evt.Number,
			Barcode:  v.Barcode,
			Position: append([]float64(nil), v.Position[:]...),
		})
	}
	return er, particles, vertices
}

func EncodeDocument(evt *Event) *Document {
	er, particles, vertices := Encode(evt)
	return &Document{Event: er, Particles: particles, Vertices: vertices}
}

// Decode rebuilds the event described by er from its particle and vertex
// records. Every record must belong to er and every vertex reference must
// resolve. Particles and vertices are re-attached to the new event.
func Decode(er EventRecord, particles []ParticleRecord, vertices []VertexRecord) (*Event, error) {
	if er.Type != TypeEvent {
		return nil, schemaError(TypeEvent, "type", fmt.Errorf("got %q", er.Type))
	}
	if len(er.Units) != 2 {
		return nil, schemaError(TypeEvent, "units", fmt.Errorf("expected 2 entries, got %d", len(er.Units)))
	}
	if len(er.XSec) != 2 {
		return nil, schemaError(TypeEvent, "xsec", fmt.Errorf("expected 2 entries, got %d", len(er.XSec)))
	}

	evt := NewEvent(er.Barcode)
	evt.No = er.No
	if len(er.Weight) > 0 {
		evt.Weights = append([]float64(nil), er.Weight...)
	}
	evt.Units = Units{Momentum: er.Units[0], Length: er.Units[1]}
	evt.XSec = CrossSection{Value: er.XSec[0], Error: er.XSec[1]}

	for _, vr := range vertices {
		if err := checkMember(TypeVertex, vr.Type, vr.Event, er.Barcode); err != nil {
			return nil, err
		}
		if len(vr.Position) != 4 {
			return nil, schemaError(TypeVertex, "position", fmt.Errorf("expected 4 components, got %d", len(vr.Position)))
		}
		v := &Vertex{Barcode: vr.Barcode}
		copy(v.Position[:], vr.Position)
		if err := evt.AddVertex(v); err != nil {
			return nil, schemaError(TypeVertex, "barcode", err)
		}
	}

	for _, pr := range particles {
		if err := checkMember(TypeParticle, pr.Type, pr.Event, er.Barcode); err != nil {
			return nil, err
		}
		if len(pr.Momentum) != 4 {
			return nil, schemaError(TypeParticle, "momentum", fmt.Errorf("expected 4 components, got %d", len(pr.Momentum)))
		}
		if pr.StartVertex != 0 && evt.Vertex(pr.StartVertex) == nil {
			return nil, schemaError(TypeParticle, "start_vertex", fmt.Errorf("%w: %d", ErrDanglingVertex, pr.StartVertex))
		}
		if pr.EndVertex != 0 && evt.Vertex(pr.EndVertex) == nil {
			return nil, schemaError(TypeParticle, "end_vertex", fmt.Errorf("%w: %d", ErrDanglingVertex, pr.EndVertex))
		}
		p := &Particle{
			Barcode: pr.Barcode,
			PID:     pr.PID,
			Mass:    pr.Mass,
			Charge:  pr.Charge,
			Status:  pr.Status,
			Start:   pr.StartVertex,
			End:     pr.EndVertex,
		}
		copy(p.Momentum[:], pr.Momentum)
		if err := evt.AddParticle(p); err != nil {
			return nil, schemaError(TypeParticle, "barcode", err)
		}
	}
	return evt, nil
}

func (d *Document) Decode() (*Event, error) {
	return Decode(d.Event, d.Particles, d.Vertices)
}

func checkMember(kind, recordType string, event, owner int) error {
	if recordType != kind {
		return schemaError(kind, "type", fmt.Errorf("got %q", recordType))
	}
	if event != owner {
		return schemaError(kind, "event", fmt.Errorf("record of event %d given with event %d", event, owner))
	}
	return nil
}

func schemaError(kind, field string, err error) error {
	return &DecodeError{Kind: kind, Field: field, Err: fmt.Errorf("%w: %w", ErrSchema, err)}
}

// DecodeRecord parses a single stored record and returns an EventRecord,
// ParticleRecord or VertexRecord depending on its "type" field.
func DecodeRecord(data []byte) (any, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, schemaError("unknown", "", err)
	}
	switch head.Type {
	case TypeEvent:
		var r EventRecord
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, err
		}
		return r, nil
	case TypeParticle:
		var r ParticleRecord
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, err
		}
		return r, nil
	case TypeVertex:
		var r VertexRecord
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, err
		}
		return r, nil
	}
	return nil, schemaError(head.Type, "type", fmt.Errorf("unknown record type %q", head.Type))
}

var (
	eventFields    = []string{"type", "no", "barcode", "weight", "units", "xsec"}
	particleFields = []string{"type", "event", "barcode", "pid", "mass", "momentum", "start_vertex", "end_vertex", "status"}
	vertexFields   = []string{"type", "event", "barcode", "position"}
)

// checkFields rejects documents that lack a schema field, or carry null in
// one of the identity fields.
func checkFields(data []byte, kind string, required []string, identity ...string) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return schemaError(kind, "", err)
	}
	for _, name := range required {
		if _, ok := fields[name]; !ok {
			return schemaError(kind, name, errors.New("missing"))
		}
	}
	for _, name := range identity {
		if bytes.Equal(bytes.TrimSpace(fields[name]), []byte("null")) {
			return schemaError(kind, name, errors.New("null identity"))
		}
	}
	return nil
}

func (r *EventRecord) UnmarshalJSON(data []byte) error {
	if err := checkFields(data, TypeEvent, eventFields, "barcode"); err != nil {
		return err
	}
	type plain EventRecord
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return schemaError(TypeEvent, "", err)
	}
	*r = EventRecord(p)
	return nil
}

func (r *ParticleRecord) UnmarshalJSON(data []byte) error {
	if err := checkFields(data, TypeParticle, particleFields, "event", "barcode"); err != nil {
		return err
	}
	type plain ParticleRecord
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return schemaError(TypeParticle, "", err)
	}
	*r = ParticleRecord(p)
	return nil
}

func (r *VertexRecord) UnmarshalJSON(data []byte) error {
	if err := checkFields(data, TypeVertex, vertexFields, "event", "barcode"); err != nil {
		return err
	}
	type plain VertexRecord
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return schemaError(TypeVertex, "", err)
	}
	*r = VertexRecord(p)
	return nil
}
