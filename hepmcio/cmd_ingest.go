package main

import (
	"fmt"

	hepmc "github.com/next-exp/hepmc_go/pkg"
	"github.com/next-exp/hepmc_go/pkg/h5writer"
	"github.com/next-exp/hepmc_go/pkg/ingest"
	"github.com/next-exp/hepmc_go/pkg/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func newIngestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest",
		Short: "Store the events of the input in the configured database and HDF5 file",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			registry := prometheus.NewRegistry()
			metrics := ingest.NewMetrics(registry)

			reader, err := openReader(ctx, configuration, hepmc.WithSkipHandler(metrics.ObserveSkipped))
			if err != nil {
				return err
			}
			defer reader.Close()

			var sinks []ingest.Sink
			if configuration.Store != "none" {
				s, err := store.Open(configuration)
				if err != nil {
					return err
				}
				defer s.Close()
				sinks = append(sinks, s)
			}
			if configuration.FileOut != "" {
				writer, err := h5writer.NewWriter(configuration.FileOut, configuration.CompressionLevel)
				if err != nil {
					return err
				}
				defer writer.Close()
				sinks = append(sinks, writer)
			}
			if len(sinks) == 0 {
				logger.Info("No store and no output file configured, events are only read", "ingest")
			}

			result, err := ingest.Run(ctx, reader, sinks, ingest.Options{
				Skip:       configuration.Skip,
				MaxEvents:  configuration.MaxEvents,
				NumWorkers: configuration.NumWorkers,
				Metrics:    metrics,
			})
			if configuration.MetricsFile != "" {
				if werr := ingest.WriteTextfile(configuration.MetricsFile, registry); werr != nil {
					logger.Error(fmt.Errorf("error writing metrics: %w", werr).Error())
				}
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "events read: %d, written: %d, particles: %d, skipped records: %d, write time: %d ms\n",
				result.EventsRead, result.EventsWritten, result.ParticlesWritten, len(reader.Skipped()), result.WriteTime.Milliseconds())
			return nil
		},
	}
}
