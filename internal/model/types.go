package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// GeneRecord is the serialized form of one gene. Only the geometry fields of
// the record's kind are populated.
type GeneRecord struct {
	Kind     string     `json:"kind"`
	Center   *[2]int    `json:"center,omitempty"`
	RX       int        `json:"rx,omitempty"`
	RY       int        `json:"ry,omitempty"`
	Vertices [][2]int   `json:"vertices,omitempty"`
	Width    int        `json:"width,omitempty"`
	Color    [3]float64 `json:"color"`
	Alpha    float64    `json:"alpha"`
}

type ChromosomeRecord struct {
	VersionedRecord
	RunID       string       `json:"run_id"`
	Generation  int          `json:"generation"`
	Fitness     float64      `json:"fitness"`
	Fingerprint string       `json:"fingerprint"`
	Width       int          `json:"width"`
	Height      int          `json:"height"`
	Genes       []GeneRecord `json:"genes"`
}

type RunRecord struct {
	VersionedRecord
	ID               string  `json:"id"`
	Target           string  `json:"target"`
	Seed             int64   `json:"seed"`
	PopulationSize   int     `json:"population_size"`
	Generations      int     `json:"generations"`
	GeneCount        int     `json:"gene_count"`
	Selection        string  `json:"selection"`
	CreatedAtUTC     string  `json:"created_at_utc"`
	CompletedAtUTC   string  `json:"completed_at_utc,omitempty"`
	FinalBestFitness float64 `json:"final_best_fitness"`
}

type GenerationDiagnostics struct {
	Generation           int            `json:"generation"`
	BestFitness          float64        `json:"best_fitness"`
	MeanFitness          float64        `json:"mean_fitness"`
	MinFitness           float64        `json:"min_fitness"`
	StdFitness           float64        `json:"std_fitness"`
	FingerprintDiversity int            `json:"fingerprint_diversity"`
	KindCounts           map[string]int `json:"kind_counts,omitempty"`
	DurationMillis       int64          `json:"duration_ms"`
}
