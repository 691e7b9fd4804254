package hepmc

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

const (
	versionPrefix = "HepMC::Version"
	listingStart  = "HepMC::IO_GenEvent-START_EVENT_LISTING"
	listingEnd    = "HepMC::IO_GenEvent-END_EVENT_LISTING"
)

// Column layout of the IO_GenEvent records, counted from the tag.
const (
	vertexMinFields   = 7 // V barcode id x y z t
	particleMinFields = 12
	colMass           = 7
	colStatus         = 8
	colEndVertex      = 11
)

type readerState int

const (
	stateInit readerState = iota
	stateSeekingStart
	stateReady
	stateParsingEvent
	stateDone
	stateFailed
)

// Reader turns an IO_GenEvent listing into events, one per call to Next. It
// is a forward-only cursor and must not be shared between goroutines.
type Reader struct {
	src    *bufio.Reader
	closer io.Closer

	state   readerState
	line    string
	hasLine bool
	lineNo  int
	err     error

	// vertex of the last V line; P lines that follow leave it
	currentVertex int

	version string
	table   ParticleTable
	onSkip  func(*RecordError)
	skipped []*RecordError
}

type ReaderOption func(*Reader)

// WithParticleTable sets the table used to look up charges.
func WithParticleTable(table ParticleTable) ReaderOption {
	return func(r *Reader) { r.table = table }
}

// WithSkipHandler registers fn to be called for every skipped record.
func WithSkipHandler(fn func(*RecordError)) ReaderOption {
	return func(r *Reader) { r.onSkip = fn }
}

// NewReader consumes the preamble of the listing and leaves the reader
// positioned on the first event.
func NewReader(src io.Reader, opts ...ReaderOption) (*Reader, error) {
	r := &Reader{
		src:   bufio.NewReader(src),
		state: stateInit,
		table: BuiltinParticleTable,
	}
	for _, opt := range opts {
		opt(r)
	}
	for r.state != stateReady {
		if err := r.step(); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Open reads the listing stored in filename.
func Open(filename string, opts ...ReaderOption) (*Reader, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, &ErrOpenFile{Filename: filename, Err: err}
	}
	r, err := NewReader(file, opts...)
	if err != nil {
		file.Close()
		return nil, err
	}
	r.closer = file
	return r, nil
}

func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	err := r.closer.Close()
	r.closer = nil
	return err
}

func (r *Reader) Version() string { return r.version }

// Skipped returns every record dropped so far.
func (r *Reader) Skipped() []*RecordError { return r.skipped }

// step advances the preamble states by one line.
func (r *Reader) step() error {
	switch r.state {
	case stateInit:
		ok, err := r.advance()
		if err != nil {
			return r.fail(err)
		}
		if !ok {
			return r.fail(ErrNoVersion)
		}
		if strings.HasPrefix(r.line, versionPrefix) {
			fields := strings.Fields(r.line)
			if len(fields) > 1 {
				r.version = fields[1]
			}
			r.state = stateSeekingStart
		}
	case stateSeekingStart:
		ok, err := r.advance()
		if err != nil {
			return r.fail(err)
		}
		if !ok {
			return r.fail(ErrNoListingStart)
		}
		if r.line == listingStart {
			if _, err := r.advance(); err != nil {
				return r.fail(err)
			}
			r.state = stateReady
		}
	case stateFailed:
		return r.err
	}
	return nil
}

func (r *Reader) fail(err error) error {
	r.state = stateFailed
	r.err = &StreamError{Line: r.lineNo, Err: err}
	return r.err
}

// advance reads the next line into the cursor. It reports false once the
// stream is exhausted.
func (r *Reader) advance() (bool, error) {
	line, err := r.src.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		r.hasLine = false
		return false, err
	}
	if err != nil && line == "" {
		r.line = ""
		r.hasLine = false
		return false, nil
	}
	r.lineNo++
	r.line = strings.TrimSpace(line)
	r.hasLine = true
	return true, nil
}

func (r *Reader) atEventBoundary() bool {
	return !r.hasLine || r.line == listingEnd || hasTag(r.line, "E")
}

func hasTag(line, tag string) bool {
	return strings.HasPrefix(line, tag+" ") || line == tag
}

// Next returns the next event, or nil once the listing is over. Records that
// cannot be parsed are skipped and reported; only a broken stream or a
// missing event header is an error.
func (r *Reader) Next() (*Event, error) {
	switch r.state {
	case stateDone:
		return nil, nil
	case stateFailed:
		return nil, r.err
	}
	if !r.hasLine || r.line == listingEnd {
		r.state = stateDone
		return nil, nil
	}
	if !hasTag(r.line, "E") {
		r.state = stateFailed
		r.err = &HeaderError{Line: r.lineNo, Text: r.line, Err: ErrNotEventHeader}
		return nil, r.err
	}
	r.state = stateParsingEvent
	evt, err := r.parseEvent()
	if err != nil {
		r.state = stateFailed
		r.err = err
		return nil, err
	}
	r.state = stateReady
	return evt, nil
}

// AllEvents drains the reader and numbers the events from 1 in read order.
func (r *Reader) AllEvents() ([]*Event, error) {
	var events []*Event
	for {
		evt, err := r.Next()
		if err != nil {
			return nil, err
		}
		if evt == nil {
			return events, nil
		}
		evt.No = len(events) + 1
		events = append(events, evt)
	}
}

type pendingParticle struct {
	particle *Particle
	line     int
	text     string
}

func (r *Reader) parseEvent() (*Event, error) {
	evt, err := r.parseHeader()
	if err != nil {
		return nil, err
	}
	if configuration.Verbosity > 1 {
		logger.Info(fmt.Sprintf("Reading event %d at line %d", evt.Number, r.lineNo), "reader")
	}

	// Header sub-lines up to the first vertex
	for {
		ok, err := r.advance()
		if err != nil {
			return nil, &StreamError{Line: r.lineNo, Err: err}
		}
		if !ok || r.atEventBoundary() {
			return evt, nil
		}
		fields := strings.Fields(r.line)
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "V" {
			break
		}
		switch fields[0] {
		case "U":
			r.parseUnits(evt, fields)
		case "C":
			r.parseCrossSection(evt, fields)
		case "N", "F", "H":
			// weight names, PDF and heavy ion info are not kept
		default:
			r.skip(evt, fields[0], fmt.Errorf("%w: %s record before the first vertex", ErrUnexpectedRecord, fields[0]))
		}
	}

	// Vertices and particles
	r.currentVertex = 0
	var pending []pendingParticle
	seen := make(map[int]bool)
	for {
		fields := strings.Fields(r.line)
		if len(fields) > 0 {
			switch fields[0] {
			case "V":
				r.parseVertex(evt, fields)
			case "P":
				p, err := r.parseParticle(fields)
				switch {
				case err != nil:
					r.skip(evt, "P", err)
				case seen[p.Barcode]:
					r.skip(evt, "P", fmt.Errorf("%w: particle %d", ErrDuplicateBarcode, p.Barcode))
				default:
					seen[p.Barcode] = true
					pending = append(pending, pendingParticle{particle: p, line: r.lineNo, text: r.line})
				}
			}
		}
		ok, err := r.advance()
		if err != nil {
			return nil, &StreamError{Line: r.lineNo, Err: err}
		}
		if !ok || r.atEventBoundary() {
			break
		}
	}

	for _, entry := range pending {
		r.resolveVertices(evt, entry)
		if err := evt.AddParticle(entry.particle); err != nil {
			r.record(evt, entry.line, "P", entry.text, err)
		}
	}
	return evt, nil
}

// parseHeader reads the E line: event number first, weight last.
func (r *Reader) parseHeader() (*Event, error) {
	fields := strings.Fields(r.line)
	if len(fields) < 2 {
		return nil, &HeaderError{Line: r.lineNo, Text: r.line, Err: ErrNotEventHeader}
	}
	number, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, &HeaderError{Line: r.lineNo, Text: r.line, Err: err}
	}
	evt := NewEvent(number)
	if len(fields) > 2 {
		weight, err := strconv.ParseFloat(fields[len(fields)-1], 64)
		if err != nil {
			return nil, &HeaderError{Line: r.lineNo, Text: r.line, Err: err}
		}
		evt.Weights = []float64{weight}
	}
	return evt, nil
}

func (r *Reader) parseUnits(evt *Event, fields []string) {
	if len(fields) < 3 {
		r.skip(evt, "U", fmt.Errorf("%w: expected 2 units, got %d", ErrMalformedRecord, len(fields)-1))
		return
	}
	evt.Units = Units{Momentum: fields[1], Length: fields[2]}
}

func (r *Reader) parseCrossSection(evt *Event, fields []string) {
	if len(fields) < 3 {
		r.skip(evt, "C", fmt.Errorf("%w: expected value and error, got %d fields", ErrMalformedRecord, len(fields)-1))
		return
	}
	values, err := parseFloats(fields[1:3])
	if err != nil {
		r.skip(evt, "C", err)
		return
	}
	evt.XSec = CrossSection{Value: values[0], Error: values[1]}
}

func (r *Reader) parseVertex(evt *Event, fields []string) {
	r.currentVertex = 0
	if len(fields) < vertexMinFields {
		r.skip(evt, "V", fmt.Errorf("%w: expected at least %d fields, got %d", ErrMalformedRecord, vertexMinFields, len(fields)))
		return
	}
	barcode, err := strconv.Atoi(fields[1])
	if err != nil {
		r.skip(evt, "V", fmt.Errorf("%w: barcode: %v", ErrMalformedRecord, err))
		return
	}
	position, err := parseFloats(fields[3:7])
	if err != nil {
		r.skip(evt, "V", err)
		return
	}
	v := &Vertex{Barcode: barcode}
	copy(v.Position[:], position)
	if err := evt.AddVertex(v); err != nil {
		r.skip(evt, "V", err)
		return
	}
	r.currentVertex = barcode
}

// parseParticle builds a particle from a P line. A particle whose end vertex
// is the current vertex is an incoming particle of that vertex, so it does
// not start there.
func (r *Reader) parseParticle(fields []string) (*Particle, error) {
	if len(fields) < particleMinFields {
		return nil, fmt.Errorf("%w: expected at least %d fields, got %d", ErrMalformedRecord, particleMinFields, len(fields))
	}
	ints, err := parseInts(fields[1], fields[2], fields[colStatus], fields[colEndVertex])
	if err != nil {
		return nil, err
	}
	momentum, err := parseFloats(fields[3:7])
	if err != nil {
		return nil, err
	}
	mass, err := parseFloats(fields[colMass : colMass+1])
	if err != nil {
		return nil, fmt.Errorf("mass: %w", err)
	}
	p := &Particle{
		Barcode: ints[0],
		PID:     ints[1],
		Mass:    mass[0],
		Status:  ints[2],
		End:     ints[3],
	}
	copy(p.Momentum[:], momentum)
	if p.End != r.currentVertex {
		p.Start = r.currentVertex
	}
	p.Charge = r.charge(p.PID)
	return p, nil
}

func (r *Reader) charge(pid int) float64 {
	if r.table == nil {
		return 0
	}
	if charge, ok := r.table.Charge(pid); ok {
		return charge
	}
	return 0
}

func (r *Reader) resolveVertices(evt *Event, entry pendingParticle) {
	p := entry.particle
	if p.Start != 0 && evt.Vertex(p.Start) == nil {
		r.record(evt, entry.line, "P", entry.text, fmt.Errorf("%w: start vertex %d of particle %d", ErrDanglingVertex, p.Start, p.Barcode))
		p.Start = 0
	}
	if p.End != 0 && evt.Vertex(p.End) == nil {
		r.record(evt, entry.line, "P", entry.text, fmt.Errorf("%w: end vertex %d of particle %d", ErrDanglingVertex, p.End, p.Barcode))
		p.End = 0
	}
}

func (r *Reader) skip(evt *Event, tag string, err error) {
	r.record(evt, r.lineNo, tag, r.line, err)
}

func (r *Reader) record(evt *Event, line int, tag, text string, err error) {
	rec := &RecordError{Event: evt.Number, Line: line, Tag: tag, Text: text, Err: err}
	r.skipped = append(r.skipped, rec)
	logger.Error(rec.Error())
	if r.onSkip != nil {
		r.onSkip(rec)
	}
}

func parseFloats(fields []string) ([]float64, error) {
	values := make([]float64, len(fields))
	for i, field := range fields {
		value, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
		}
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return nil, fmt.Errorf("%w: non-finite value %q", ErrMalformedRecord, field)
		}
		values[i] = value
	}
	return values, nil
}

func parseInts(fields ...string) ([]int, error) {
	values := make([]int, len(fields))
	for i, field := range fields {
		value, err := strconv.Atoi(field)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
		}
		values[i] = value
	}
	return values, nil
}
