package hepmc

type Configuration struct {
	Verbosity         int     `json:"verbosity"`
	FileIn            string  `json:"file_in"`
	MaxEvents         int     `json:"max_events"`
	Skip              int     `json:"skip"`
	NumWorkers        int     `json:"num_workers"`
	DistanceThreshold float64 `json:"distance_threshold"`
	PtCutoff          float64 `json:"pt_cutoff"`
	Store             string  `json:"store"`
	DBPath            string  `json:"db_path"`
	Host              string  `json:"host"`
	User              string  `json:"user"`
	Passwd            string  `json:"pass"`
	DBName            string  `json:"dbname"`
	ParticleTable     string  `json:"particle_table"`
	FileOut           string  `json:"file_out"`
	CompressionLevel  int     `json:"compression_level"`
	MetricsFile       string  `json:"metrics_file"`
}

var configuration Configuration

func GetConfiguration() Configuration {
	return configuration
}

func SetConfiguration(config Configuration) {
	configuration = config
}
