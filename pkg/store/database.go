package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	sqlx "github.com/jmoiron/sqlx"
	hepmc "github.com/next-exp/hepmc_go/pkg"
	_ "modernc.org/sqlite"
)

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS events (
		evt_no INTEGER NOT NULL,
		barcode INTEGER NOT NULL PRIMARY KEY,
		weights TEXT NOT NULL,
		momentum_unit VARCHAR(16) NOT NULL,
		length_unit VARCHAR(16) NOT NULL,
		xsec DOUBLE NOT NULL,
		xsec_err DOUBLE NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS particles (
		event INTEGER NOT NULL,
		barcode INTEGER NOT NULL,
		pid INTEGER NOT NULL,
		mass DOUBLE NOT NULL,
		charge DOUBLE NOT NULL,
		px DOUBLE NOT NULL,
		py DOUBLE NOT NULL,
		pz DOUBLE NOT NULL,
		e DOUBLE NOT NULL,
		start_vertex INTEGER NOT NULL,
		end_vertex INTEGER NOT NULL,
		status INTEGER NOT NULL,
		PRIMARY KEY (event, barcode)
	)`,
	`CREATE TABLE IF NOT EXISTS vertices (
		event INTEGER NOT NULL,
		barcode INTEGER NOT NULL,
		x DOUBLE NOT NULL,
		y DOUBLE NOT NULL,
		z DOUBLE NOT NULL,
		t DOUBLE NOT NULL,
		PRIMARY KEY (event, barcode)
	)`,
}

type eventRow struct {
	No           int     `db:"evt_no"`
	Barcode      int     `db:"barcode"`
	Weights      string  `db:"weights"`
	MomentumUnit string  `db:"momentum_unit"`
	LengthUnit   string  `db:"length_unit"`
	XSec         float64 `db:"xsec"`
	XSecErr      float64 `db:"xsec_err"`
}

type particleRow struct {
	Event       int     `db:"event"`
	Barcode     int     `db:"barcode"`
	PID         int     `db:"pid"`
	Mass        float64 `db:"mass"`
	Charge      float64 `db:"charge"`
	Px          float64 `db:"px"`
	Py          float64 `db:"py"`
	Pz          float64 `db:"pz"`
	E           float64 `db:"e"`
	StartVertex int     `db:"start_vertex"`
	EndVertex   int     `db:"end_vertex"`
	Status      int     `db:"status"`
}

type vertexRow struct {
	Event   int     `db:"event"`
	Barcode int     `db:"barcode"`
	X       float64 `db:"x"`
	Y       float64 `db:"y"`
	Z       float64 `db:"z"`
	T       float64 `db:"t"`
}

// SQLStore writes records to the events, particles and vertices tables of a
// MySQL or SQLite database.
type SQLStore struct {
	db *sqlx.DB
}

func ConnectToDatabase(user string, pass string, host string, dbname string) (*sqlx.DB, error) {
	port := "3306"
	dbURI := fmt.Sprintf("%s:%s@(%s:%s)/%s?parseTime=true", user, pass, host, port, dbname)
	db, err := sqlx.Connect("mysql", dbURI)
	return db, err
}

// OpenSQLite opens (or creates) the SQLite database at path. ":memory:" gives
// a private in-memory database.
func OpenSQLite(path string) (*SQLStore, error) {
	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// a single connection keeps ":memory:" databases alive and serialises writers
	db.SetMaxOpenConns(1)
	s, err := NewSQLStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLStore creates the tables if they do not exist yet.
func NewSQLStore(db *sqlx.DB) (*SQLStore, error) {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("error creating tables: %w", err)
		}
	}
	return &SQLStore{db: db}, nil
}

func (s *SQLStore) Name() string { return s.db.DriverName() }

// DB exposes the connection, e.g. to load the particle table from it.
func (s *SQLStore) DB() *sqlx.DB { return s.db }

func (s *SQLStore) Close() error { return s.db.Close() }

func (s *SQLStore) Write(ctx context.Context, doc *hepmc.Document) error {
	weights, err := json.Marshal(doc.Event.Weight)
	if err != nil {
		return fmt.Errorf("error encoding weights: %w", err)
	}
	if len(doc.Event.Units) != 2 || len(doc.Event.XSec) != 2 {
		return fmt.Errorf("%w: event %d has malformed units or cross section", hepmc.ErrSchema, doc.Event.Barcode)
	}
	number := doc.Event.Barcode

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"particles", "vertices"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE event = ?", number); err != nil {
			return fmt.Errorf("error clearing %s of event %d: %w", table, number, err)
		}
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM events WHERE barcode = ?", number); err != nil {
		return fmt.Errorf("error clearing event %d: %w", number, err)
	}

	row := eventRow{
		No:           doc.Event.No,
		Barcode:      number,
		Weights:      string(weights),
		MomentumUnit: doc.Event.Units[0],
		LengthUnit:   doc.Event.Units[1],
		XSec:         doc.Event.XSec[0],
		XSecErr:      doc.Event.XSec[1],
	}
	_, err = tx.NamedExecContext(ctx, `INSERT INTO events (evt_no, barcode, weights, momentum_unit, length_unit, xsec, xsec_err)
		VALUES (:evt_no, :barcode, :weights, :momentum_unit, :length_unit, :xsec, :xsec_err)`, row)
	if err != nil {
		return fmt.Errorf("error inserting event %d: %w", number, err)
	}

	if len(doc.Particles) > 0 {
		rows := make([]particleRow, len(doc.Particles))
		for i, p := range doc.Particles {
			if len(p.Momentum) != 4 {
				return fmt.Errorf("%w: particle %d has %d momentum components", hepmc.ErrSchema, p.Barcode, len(p.Momentum))
			}
			rows[i] = particleRow{
				Event: p.Event, Barcode: p.Barcode, PID: p.PID, Mass: p.Mass, Charge: p.Charge,
				Px: p.Momentum[0], Py: p.Momentum[1], Pz: p.Momentum[2], E: p.Momentum[3],
				StartVertex: p.StartVertex, EndVertex: p.EndVertex, Status: p.Status,
			}
		}
		err = insertChunked(ctx, tx, `INSERT INTO particles (event, barcode, pid, mass, charge, px, py, pz, e, start_vertex, end_vertex, status)
			VALUES (:event, :barcode, :pid, :mass, :charge, :px, :py, :pz, :e, :start_vertex, :end_vertex, :status)`, rows)
		if err != nil {
			return fmt.Errorf("error inserting particles of event %d: %w", number, err)
		}
	}

	if len(doc.Vertices) > 0 {
		rows := make([]vertexRow, len(doc.Vertices))
		for i, v := range doc.Vertices {
			if len(v.Position) != 4 {
				return fmt.Errorf("%w: vertex %d has %d position components", hepmc.ErrSchema, v.Barcode, len(v.Position))
			}
			rows[i] = vertexRow{
				Event: v.Event, Barcode: v.Barcode,
				X: v.Position[0], Y: v.Position[1], Z: v.Position[2], T: v.Position[3],
			}
		}
		err = insertChunked(ctx, tx, `INSERT INTO vertices (event, barcode, x, y, z, t)
			VALUES (:event, :barcode, :x, :y, :z, :t)`, rows)
		if err != nil {
			return fmt.Errorf("error inserting vertices of event %d: %w", number, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing event %d: %w", number, err)
	}
	return nil
}

// insertChunkSize bounds the rows of one batch insert. SQLite accepts at most
// 32766 bind variables per statement and MySQL 65535.
const insertChunkSize = 500

func insertChunked[T any](ctx context.Context, tx *sqlx.Tx, query string, rows []T) error {
	for start := 0; start < len(rows); start += insertChunkSize {
		end := min(start+insertChunkSize, len(rows))
		if _, err := tx.NamedExecContext(ctx, query, rows[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLStore) LoadEvent(ctx context.Context, number int) (*hepmc.Event, error) {
	if hepmc.GetConfiguration().Verbosity > 1 {
		hepmc.GetLogger().Info(fmt.Sprintf("Loading event %d from %s", number, s.Name()), "store")
	}
	var row eventRow
	err := s.db.GetContext(ctx, &row, "SELECT * FROM events WHERE barcode = ?", number)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrEventNotFound, number)
	}
	if err != nil {
		return nil, fmt.Errorf("error querying database: %w", err)
	}
	er := hepmc.EventRecord{
		Type:    hepmc.TypeEvent,
		No:      row.No,
		Barcode: row.Barcode,
		Units:   []string{row.MomentumUnit, row.LengthUnit},
		XSec:    []float64{row.XSec, row.XSecErr},
	}
	if err := json.Unmarshal([]byte(row.Weights), &er.Weight); err != nil {
		return nil, &hepmc.DecodeError{Kind: hepmc.TypeEvent, Field: "weight", Err: fmt.Errorf("%w: %w", hepmc.ErrSchema, err)}
	}

	var particleRows []particleRow
	if err := s.db.SelectContext(ctx, &particleRows, "SELECT * FROM particles WHERE event = ? ORDER BY barcode", number); err != nil {
		return nil, fmt.Errorf("error querying database: %w", err)
	}
	particles := make([]hepmc.ParticleRecord, len(particleRows))
	for i, p := range particleRows {
		particles[i] = hepmc.ParticleRecord{
			Type: hepmc.TypeParticle, Event: p.Event, Barcode: p.Barcode, PID: p.PID,
			Charge: p.Charge, Mass: p.Mass, Momentum: []float64{p.Px, p.Py, p.Pz, p.E},
			StartVertex: p.StartVertex, EndVertex: p.EndVertex, Status: p.Status,
		}
	}

	var vertexRows []vertexRow
	if err := s.db.SelectContext(ctx, &vertexRows, "SELECT * FROM vertices WHERE event = ? ORDER BY barcode", number); err != nil {
		return nil, fmt.Errorf("error querying database: %w", err)
	}
	vertices := make([]hepmc.VertexRecord, len(vertexRows))
	for i, v := range vertexRows {
		vertices[i] = hepmc.VertexRecord{
			Type: hepmc.TypeVertex, Event: v.Event, Barcode: v.Barcode,
			Position: []float64{v.X, v.Y, v.Z, v.T},
		}
	}
	return hepmc.Decode(er, particles, vertices)
}

func (s *SQLStore) EventNumbers(ctx context.Context) ([]int, error) {
	var numbers []int
	if err := s.db.SelectContext(ctx, &numbers, "SELECT barcode FROM events ORDER BY barcode"); err != nil {
		return nil, fmt.Errorf("error querying database: %w", err)
	}
	return numbers, nil
}

type particleDataRow struct {
	PDGID  int     `db:"pdg_id"`
	Name   string  `db:"name"`
	Charge float64 `db:"charge"`
	Mass   float64 `db:"mass"`
}

// LoadParticleTable reads particle properties from the particle_data table.
func LoadParticleTable(ctx context.Context, db *sqlx.DB) (hepmc.MapParticleTable, error) {
	query := "SELECT pdg_id, name, charge, mass FROM particle_data"
	if hepmc.GetConfiguration().Verbosity > 0 {
		hepmc.GetLogger().Info("Reading particle table from database", "database")
	}
	if hepmc.GetConfiguration().Verbosity > 2 {
		hepmc.GetLogger().Info(fmt.Sprintf("Query: %s", query), "database")
	}

	rows, err := db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying database: %w", err)
	}
	defer rows.Close()

	table := make(hepmc.MapParticleTable)
	for rows.Next() {
		result := particleDataRow{}
		if err := rows.StructScan(&result); err != nil {
			return nil, fmt.Errorf("error scanning DB row: %w", err)
		}
		table[result.PDGID] = hepmc.ParticleData{Name: result.Name, Charge: result.Charge, Mass: result.Mass}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading DB rows: %w", err)
	}
	return table, nil
}
