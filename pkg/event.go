package hepmc

import (
	"fmt"
	"math"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// FourVector holds (px, py, pz, E) for momenta and (x, y, z, t) for positions.
type FourVector [4]float64

// Pt is the transverse component of a momentum.
func (v FourVector) Pt() float64 {
	return math.Hypot(v[0], v[1])
}

// Rho2 is the squared norm of the spatial part.
func (v FourVector) Rho2() float64 {
	return v[0]*v[0] + v[1]*v[1] + v[2]*v[2]
}

// Particle is one line of the event graph. Start and End hold vertex
// barcodes; zero means the particle has no such vertex.
type Particle struct {
	Barcode  int
	PID      int
	Momentum FourVector
	Mass     float64
	Charge   float64
	Status   int
	Start    int
	End      int

	event *Event
}

type Vertex struct {
	Barcode  int
	Position FourVector

	event *Event
}

type Units struct {
	Momentum string
	Length   string
}

type CrossSection struct {
	Value float64
	Error float64
}

// Event owns its particles and vertices. Particles and vertices only refer to
// each other through barcodes; the incidence index maps a vertex barcode to
// the sorted barcodes of the particles entering and leaving it.
type Event struct {
	No      int
	Number  int
	Weights []float64
	Units   Units
	XSec    CrossSection

	particles map[int]*Particle
	vertices  map[int]*Vertex
	incoming  map[int][]int
	outgoing  map[int][]int
}

func NewEvent(number int) *Event {
	return &Event{
		Number:    number,
		particles: make(map[int]*Particle),
		vertices:  make(map[int]*Vertex),
		incoming:  make(map[int][]int),
		outgoing:  make(map[int][]int),
	}
}

func (e *Event) init() {
	if e.particles == nil {
		e.particles = make(map[int]*Particle)
		e.vertices = make(map[int]*Vertex)
		e.incoming = make(map[int][]int)
		e.outgoing = make(map[int][]int)
	}
}

// AddVertex takes ownership of v. Vertex barcode 0 is reserved for "no vertex".
func (e *Event) AddVertex(v *Vertex) error {
	e.init()
	if v.Barcode == 0 {
		return fmt.Errorf("%w: vertex barcode 0 is reserved", ErrMalformedRecord)
	}
	if _, ok := e.vertices[v.Barcode]; ok {
		return fmt.Errorf("%w: vertex %d", ErrDuplicateBarcode, v.Barcode)
	}
	v.event = e
	e.vertices[v.Barcode] = v
	return nil
}

// AddParticle takes ownership of p. The vertex references of p must not be
// changed afterwards.
func (e *Event) AddParticle(p *Particle) error {
	e.init()
	if _, ok := e.particles[p.Barcode]; ok {
		return fmt.Errorf("%w: particle %d", ErrDuplicateBarcode, p.Barcode)
	}
	p.event = e
	e.particles[p.Barcode] = p
	if p.Start != 0 {
		e.outgoing[p.Start] = insertSorted(e.outgoing[p.Start], p.Barcode)
	}
	if p.End != 0 {
		e.incoming[p.End] = insertSorted(e.incoming[p.End], p.Barcode)
	}
	return nil
}

func insertSorted(list []int, barcode int) []int {
	i, _ := slices.BinarySearch(list, barcode)
	return slices.Insert(list, i, barcode)
}

func (e *Event) Particle(barcode int) *Particle {
	return e.particles[barcode]
}

func (e *Event) Vertex(barcode int) *Vertex {
	if barcode == 0 {
		return nil
	}
	return e.vertices[barcode]
}

// Particles returns the particles ordered by barcode.
func (e *Event) Particles() []*Particle {
	barcodes := maps.Keys(e.particles)
	slices.Sort(barcodes)
	return e.lookup(barcodes)
}

// Vertices returns the vertices ordered by barcode.
func (e *Event) Vertices() []*Vertex {
	barcodes := maps.Keys(e.vertices)
	slices.Sort(barcodes)
	vertices := make([]*Vertex, len(barcodes))
	for i, bc := range barcodes {
		vertices[i] = e.vertices[bc]
	}
	return vertices
}

func (e *Event) NumParticles() int { return len(e.particles) }
func (e *Event) NumVertices() int  { return len(e.vertices) }

func (e *Event) lookup(barcodes []int) []*Particle {
	if len(barcodes) == 0 {
		return nil
	}
	particles := make([]*Particle, len(barcodes))
	for i, bc := range barcodes {
		particles[i] = e.particles[bc]
	}
	return particles
}

func (e *Event) String() string {
	return fmt.Sprintf("E%d. #p=%d #v=%d, xs=%1.2e+-%1.2e, No%d",
		e.Number, len(e.particles), len(e.vertices), e.XSec.Value, e.XSec.Error, e.No)
}

func (e *Event) headerEqual(o *Event) bool {
	return e.Number == o.Number &&
		slices.Equal(e.Weights, o.Weights) &&
		e.Units == o.Units &&
		e.XSec == o.XSec
}

// Equal compares the header and every particle and vertex. The ordinal No is
// a property of the read, not of the event, and is ignored.
func (e *Event) Equal(o *Event) bool {
	if e == nil || o == nil {
		return e == o
	}
	if !e.headerEqual(o) || len(e.particles) != len(o.particles) || len(e.vertices) != len(o.vertices) {
		return false
	}
	for bc, p := range e.particles {
		if !p.Equal(o.particles[bc]) {
			return false
		}
	}
	for bc, v := range e.vertices {
		if !v.Equal(o.vertices[bc]) {
			return false
		}
	}
	return true
}

func sameOwner(a, b *Event) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a == b || a.headerEqual(b)
}

func (p *Particle) Event() *Event { return p.event }

func (p *Particle) StartVertex() *Vertex {
	if p.event == nil {
		return nil
	}
	return p.event.Vertex(p.Start)
}

func (p *Particle) EndVertex() *Vertex {
	if p.event == nil {
		return nil
	}
	return p.event.Vertex(p.End)
}

// Parents are the particles entering the vertex this particle comes out of.
func (p *Particle) Parents() []*Particle {
	v := p.StartVertex()
	if v == nil {
		return nil
	}
	return v.Parents()
}

// Children are the particles leaving the vertex this particle decays in.
func (p *Particle) Children() []*Particle {
	v := p.EndVertex()
	if v == nil {
		return nil
	}
	return v.Children()
}

// Equal compares every attribute, including the header of the owning event.
func (p *Particle) Equal(o *Particle) bool {
	if p == nil || o == nil {
		return p == o
	}
	return p.Barcode == o.Barcode &&
		p.PID == o.PID &&
		p.Momentum == o.Momentum &&
		p.Mass == o.Mass &&
		p.Charge == o.Charge &&
		p.Status == o.Status &&
		p.Start == o.Start &&
		p.End == o.End &&
		sameOwner(p.event, o.event)
}

func (p *Particle) String() string {
	return fmt.Sprintf("P%d", p.Barcode)
}

func (v *Vertex) Event() *Event { return v.event }

func (v *Vertex) Parents() []*Particle {
	if v.event == nil {
		return nil
	}
	return v.event.lookup(v.event.incoming[v.Barcode])
}

func (v *Vertex) Children() []*Particle {
	if v.event == nil {
		return nil
	}
	return v.event.lookup(v.event.outgoing[v.Barcode])
}

func (v *Vertex) Equal(o *Vertex) bool {
	if v == nil || o == nil {
		return v == o
	}
	return v.Barcode == o.Barcode && v.Position == o.Position && sameOwner(v.event, o.event)
}

func (v *Vertex) String() string {
	return fmt.Sprintf("V%d", v.Barcode)
}
