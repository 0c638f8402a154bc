package results

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/evcharge-sim/evcharge-sim/sim"
)

// Wait table columns. The analysis reads columns by name, not position.
const (
	ColSeed     = "seed"
	ColClosest  = string(sim.PolicyClosestStationFirst)
	ColShortest = string(sim.PolicyShortestEstimatedWait)
)

var waitColumns = []string{ColSeed, ColClosest, ColShortest}

var detailColumns = []string{
	"Seed",
	"ClosestStation_AvgWaitTime_min",
	"ClosestStation_AvgTotalTime_min",
	"ClosestStation_Balking_count",
	"ShortestWait_AvgWaitTime_min",
	"ShortestWait_AvgTotalTime_min",
	"ShortestWait_Balking_count",
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteWaitTable writes seed,closest_station_first,shortest_estimated_wait
// rows of average wait time.
func WriteWaitTable(w io.Writer, rows []Row) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(waitColumns); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, r := range rows {
		row := []string{
			strconv.FormatInt(r.Seed, 10),
			formatFloat(r.Closest.AvgWaitTime),
			formatFloat(r.Shortest.AvgWaitTime),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("writing CSV row for seed %d: %w", r.Seed, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteDetailTable writes every per-policy number, one row per seed.
func WriteDetailTable(w io.Writer, rows []Row) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(detailColumns); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, r := range rows {
		row := []string{
			strconv.FormatInt(r.Seed, 10),
			formatFloat(r.Closest.AvgWaitTime),
			formatFloat(r.Closest.AvgTimeInSystem),
			strconv.FormatUint(r.Closest.TotalBalking, 10),
			formatFloat(r.Shortest.AvgWaitTime),
			formatFloat(r.Shortest.AvgTimeInSystem),
			strconv.FormatUint(r.Shortest.TotalBalking, 10),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("writing CSV row for seed %d: %w", r.Seed, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// ExportWaitTable writes the wait table to path.
func ExportWaitTable(rows []Row, path string) error {
	return exportTo(path, func(w io.Writer) error { return WriteWaitTable(w, rows) })
}

// ExportDetailTable writes the detail table to path.
func ExportDetailTable(rows []Row, path string) error {
	return exportTo(path, func(w io.Writer) error { return WriteDetailTable(w, rows) })
}

func exportTo(path string, write func(io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(file); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// WaitRow is one parsed line of the wait table.
type WaitRow struct {
	Seed                  int64
	ClosestStationFirst   float64
	ShortestEstimatedWait float64
}

// ReadWaitTable parses a wait table. Columns are located by header name;
// extra columns are ignored.
func ReadWaitTable(r io.Reader) ([]WaitRow, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}
	for _, col := range waitColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("wait table is missing column %q", col)
		}
	}

	var rows []WaitRow
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV row: %w", err)
		}
		seed, err := strconv.ParseInt(record[index[ColSeed]], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid seed: %w", line, err)
		}
		closest, err := strconv.ParseFloat(record[index[ColClosest]], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid %s: %w", line, ColClosest, err)
		}
		shortest, err := strconv.ParseFloat(record[index[ColShortest]], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid %s: %w", line, ColShortest, err)
		}
		rows = append(rows, WaitRow{Seed: seed, ClosestStationFirst: closest, ShortestEstimatedWait: shortest})
	}
	return rows, nil
}

// LoadWaitTable reads a wait table from path.
func LoadWaitTable(path string) ([]WaitRow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening wait table: %w", err)
	}
	defer func() { _ = file.Close() }()
	return ReadWaitTable(file)
}

// Columns splits wait rows into the two paired samples.
func Columns(rows []WaitRow) (seeds []int64, closest, shortest []float64) {
	for _, r := range rows {
		seeds = append(seeds, r.Seed)
		closest = append(closest, r.ClosestStationFirst)
		shortest = append(shortest, r.ShortestEstimatedWait)
	}
	return seeds, closest, shortest
}

// Replication ties a seed to the ID both of its runs reported.
type Replication struct {
	Seed          int64  `yaml:"seed"`
	ReplicationID string `yaml:"replication_id"`
}

// Manifest describes a sweep so its tables can be reproduced.
type Manifest struct {
	Policies     []string      `yaml:"policies"`
	Config       sim.Config    `yaml:"config"`
	Replications []Replication `yaml:"replications"`
}

// NewManifest records base and the replications in rows.
func NewManifest(base sim.Config, rows []Row) *Manifest {
	m := &Manifest{
		Policies: sim.ValidRoutingPolicyNames(),
		Config:   base,
	}
	for _, r := range rows {
		m.Replications = append(m.Replications, Replication{Seed: r.Seed, ReplicationID: r.ReplicationID})
	}
	return m
}

// ExportManifest writes m as YAML to path.
func ExportManifest(m *Manifest, path string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}
