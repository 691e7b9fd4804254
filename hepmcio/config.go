package main

import (
	"encoding/json"
	"fmt"
	"os"

	hepmc "github.com/next-exp/hepmc_go/pkg"
)

// LoadConfiguration reads a JSON configuration file on top of the defaults.
// An empty filename returns the defaults.
func LoadConfiguration(filename string) (hepmc.Configuration, error) {
	var config hepmc.Configuration

	// Set default values
	config.Verbosity = 0
	config.MaxEvents = 1000000000
	config.Skip = 0
	config.NumWorkers = 1
	config.DistanceThreshold = hepmc.DefaultDistanceThreshold
	config.PtCutoff = 0.5
	config.Store = "sqlite"
	config.DBPath = "hepmc.db"
	config.Host = "localhost"
	config.User = "hepmc"
	config.Passwd = "hepmc"
	config.DBName = "hepmc"
	config.ParticleTable = "builtin"
	config.CompressionLevel = 4

	if filename == "" {
		return config, nil
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return config, &hepmc.ErrOpenFile{Filename: filename, Err: err}
	}
	err = json.Unmarshal(data, &config)
	if err != nil {
		return config, fmt.Errorf("error parsing %s: %w", filename, err)
	}
	return config, nil
}

func printConfiguration(config hepmc.Configuration, logger hepmc.Logger) {
	logger.Info(fmt.Sprintf("File in: %s", config.FileIn), "config")
	logger.Info(fmt.Sprintf("File out: %s", config.FileOut), "config")
	logger.Info(fmt.Sprintf("Skip: %d", config.Skip), "config")
	logger.Info(fmt.Sprintf("Max events: %d", config.MaxEvents), "config")
	logger.Info(fmt.Sprintf("Verbosity: %d", config.Verbosity), "config")
	logger.Info(fmt.Sprintf("Number of workers: %d", config.NumWorkers), "config")
	logger.Info(fmt.Sprintf("Distance threshold: %g", config.DistanceThreshold), "config")
	logger.Info(fmt.Sprintf("pT cutoff: %g", config.PtCutoff), "config")
	logger.Info(fmt.Sprintf("Store: %s", config.Store), "config")
	logger.Info(fmt.Sprintf("DB path: %s", config.DBPath), "config")
	logger.Info(fmt.Sprintf("Host: %s", config.Host), "config")
	logger.Info(fmt.Sprintf("DB name: %s", config.DBName), "config")
	logger.Info(fmt.Sprintf("Particle table: %s", config.ParticleTable), "config")
	logger.Info(fmt.Sprintf("Compression level: %d", config.CompressionLevel), "config")
	logger.Info(fmt.Sprintf("Metrics file: %s", config.MetricsFile), "config")
}
