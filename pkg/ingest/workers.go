// Package ingest moves events from a reader to one or more sinks. Events are
// read by a single goroutine, encoded by a pool of workers and written in
// read order by a single consumer.
package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	hepmc "github.com/next-exp/hepmc_go/pkg"
	"golang.org/x/sync/errgroup"
)

// Source yields events until it returns nil. *hepmc.Reader is a Source.
type Source interface {
	Next() (*hepmc.Event, error)
}

// Sink receives the encoded documents. Record stores and the HDF5 writer are
// sinks.
type Sink interface {
	Name() string
	Write(ctx context.Context, doc *hepmc.Document) error
}

type Options struct {
	// Skip drops the first Skip events of the source.
	Skip int
	// MaxEvents stops after that many events have been sent to the
	// workers; 0 means no limit.
	MaxEvents  int
	NumWorkers int
	Metrics    *Metrics
}

type Result struct {
	EventsRead       int
	EventsWritten    int
	ParticlesWritten int
	WriteTime        time.Duration
}

type workerData struct {
	seq   int
	event *hepmc.Event
}

type workerResult struct {
	seq int
	doc *hepmc.Document
}

// Run drains source into sinks. The first error stops the pipeline and is
// returned together with what was achieved so far.
func Run(ctx context.Context, source Source, sinks []Sink, opts Options) (Result, error) {
	numWorkers := opts.NumWorkers
	if numWorkers < 1 {
		numWorkers = 1
	}
	var result Result

	g, ctx := errgroup.WithContext(ctx)
	jobs := make(chan workerData, numWorkers)
	results := make(chan workerResult, numWorkers)

	g.Go(func() error {
		defer close(jobs)
		return sendEventsToWorkers(ctx, source, jobs, opts, &result)
	})

	var workers sync.WaitGroup
	for w := 1; w <= numWorkers; w++ {
		workers.Add(1)
		g.Go(func() error {
			defer workers.Done()
			return worker(ctx, w, jobs, results)
		})
	}
	g.Go(func() error {
		workers.Wait()
		close(results)
		return nil
	})

	g.Go(func() error {
		return processWorkerResults(ctx, results, sinks, opts.Metrics, &result)
	})

	err := g.Wait()
	return result, err
}

func sendEventsToWorkers(ctx context.Context, source Source, jobs chan<- workerData, opts Options, result *Result) error {
	verbosity := hepmc.GetConfiguration().Verbosity
	sent := 0
	for {
		if opts.MaxEvents > 0 && sent >= opts.MaxEvents {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		event, err := source.Next()
		if err != nil {
			return fmt.Errorf("error reading event: %w", err)
		}
		if event == nil {
			return nil
		}
		result.EventsRead++
		opts.Metrics.observeRead()
		if result.EventsRead <= opts.Skip {
			continue
		}
		event.No = result.EventsRead
		if verbosity > 1 {
			hepmc.GetLogger().Info(fmt.Sprintf("Sending event %d to workers", event.Number), "ingest")
		}
		select {
		case jobs <- workerData{seq: sent, event: event}:
			sent++
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func worker(ctx context.Context, id int, jobs <-chan workerData, results chan<- workerResult) error {
	verbosity := hepmc.GetConfiguration().Verbosity
	for job := range jobs {
		if verbosity > 2 {
			hepmc.GetLogger().Info(fmt.Sprintf("Worker %d processing event %d", id, job.event.Number), "ingest")
		}
		doc := hepmc.EncodeDocument(job.event)
		select {
		case results <- workerResult{seq: job.seq, doc: doc}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// processWorkerResults restores the read order before writing, since the
// workers finish in any order.
func processWorkerResults(ctx context.Context, results <-chan workerResult, sinks []Sink, metrics *Metrics, result *Result) error {
	pending := make(map[int]*hepmc.Document)
	next := 0
	for res := range results {
		pending[res.seq] = res.doc
		for {
			doc, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			next++
			if err := writeDocument(ctx, doc, sinks, metrics, result); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeDocument(ctx context.Context, doc *hepmc.Document, sinks []Sink, metrics *Metrics, result *Result) error {
	for _, sink := range sinks {
		start := time.Now()
		if err := sink.Write(ctx, doc); err != nil {
			errMessage := fmt.Errorf("error writing event %d to %s: %w", doc.Event.Barcode, sink.Name(), err)
			hepmc.GetLogger().Error(errMessage.Error())
			return errMessage
		}
		duration := time.Since(start)
		result.WriteTime += duration
		metrics.observeWrite(sink.Name(), duration)
	}
	result.EventsWritten++
	result.ParticlesWritten += len(doc.Particles)
	metrics.observeParticles(len(doc.Particles))
	if hepmc.GetConfiguration().Verbosity > 1 {
		hepmc.GetLogger().Info(fmt.Sprintf("Processed event %d", doc.Event.Barcode), "ingest")
	}
	return nil
}
