package results

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/evcharge-sim/evcharge-sim/sim"
	"github.com/evcharge-sim/evcharge-sim/sim/analysis"
)

func sampleRows() []Row {
	return []Row{
		{Seed: 100, ReplicationID: "a", Closest: Outcome{12.5, 20.25, 7}, Shortest: Outcome{10, 18, 3}},
		{Seed: 102, ReplicationID: "b", Closest: Outcome{11, 19, 5}, Shortest: Outcome{10.5, 18.5, 4}},
	}
}

func TestSeeds(t *testing.T) {
	assert.Equal(t, []int64{100, 102, 104, 106, 108}, Seeds(100, 2, 5))
	assert.Empty(t, Seeds(1, 1, 0))
}

func TestWriteWaitTable_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteWaitTable(&buf, sampleRows()))
	assert.Equal(t,
		"seed,closest_station_first,shortest_estimated_wait\n100,12.5,10\n102,11,10.5\n",
		buf.String())
}

func TestWriteDetailTable_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDetailTable(&buf, sampleRows()))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, strings.Join(detailColumns, ","), lines[0])
	assert.Equal(t, "100,12.5,20.25,7,10,18,3", lines[1])
}

func TestWaitTable_ExportThenLoad(t *testing.T) {
	// GIVEN a wait table written to disk
	path := filepath.Join(t.TempDir(), "results.csv")
	require.NoError(t, ExportWaitTable(sampleRows(), path))

	// WHEN loaded
	rows, err := LoadWaitTable(path)
	require.NoError(t, err)

	// THEN the paired columns come back in order
	seeds, closest, shortest := Columns(rows)
	assert.Equal(t, []int64{100, 102}, seeds)
	assert.Equal(t, []float64{12.5, 11}, closest)
	assert.Equal(t, []float64{10, 10.5}, shortest)
}

func TestReadWaitTable_ColumnsByName(t *testing.T) {
	in := "shortest_estimated_wait,note,seed,closest_station_first\n3,x,7,4\n"
	rows, err := ReadWaitTable(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []WaitRow{{Seed: 7, ClosestStationFirst: 4, ShortestEstimatedWait: 3}}, rows)
}

func TestReadWaitTable_Errors(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantMsg string
	}{
		{"empty", "", "header"},
		{"missing column", "seed,closest_station_first\n1,2\n", "missing column"},
		{"bad seed", "seed,closest_station_first,shortest_estimated_wait\nx,1,2\n", "invalid seed"},
		{"bad value", "seed,closest_station_first,shortest_estimated_wait\n1,?,2\n", "closest_station_first"},
		{"ragged row", "seed,closest_station_first,shortest_estimated_wait\n1,2\n", "CSV row"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadWaitTable(strings.NewReader(tt.in))
			assert.ErrorContains(t, err, tt.wantMsg)
		})
	}
}

func TestLoadWaitTable_MissingFile(t *testing.T) {
	_, err := LoadWaitTable(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func smallBase() sim.Config {
	cfg := sim.DefaultConfig()
	cfg.NumDelaysRequired = 100
	return cfg
}

func TestRunPaired_PairsBothPolicies(t *testing.T) {
	// GIVEN two seeds
	rows, err := RunPaired(smallBase(), Seeds(100, 2, 2))
	require.NoError(t, err)

	// THEN each seed has both policies and a replication ID
	require.Len(t, rows, 2)
	for _, r := range rows {
		assert.NotEmpty(t, r.ReplicationID)
		assert.Positive(t, r.Closest.AvgTimeInSystem)
		assert.Positive(t, r.Shortest.AvgTimeInSystem)
	}
	assert.NotEqual(t, rows[0].ReplicationID, rows[1].ReplicationID)

	// AND rerunning a seed reproduces it exactly
	again, err := RunPaired(smallBase(), []int64{100})
	require.NoError(t, err)
	assert.Equal(t, rows[0], again[0])
}

func TestRunPaired_InvalidConfig(t *testing.T) {
	cfg := smallBase()
	cfg.MeanInterarrivalTime = -1
	_, err := RunPaired(cfg, []int64{1})
	assert.ErrorContains(t, err, "mean_interarrival_time")
}

func TestExportManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sweep.yaml")
	require.NoError(t, ExportManifest(NewManifest(smallBase(), sampleRows()), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var m Manifest
	require.NoError(t, yaml.Unmarshal(data, &m))
	assert.Equal(t, []string{"closest_station_first", "shortest_estimated_wait"}, m.Policies)
	assert.Equal(t, uint64(100), m.Config.NumDelaysRequired)
	assert.Len(t, m.Config.Stations, 3)
	assert.Equal(t, []Replication{{100, "a"}, {102, "b"}}, m.Replications)
}

func TestRunPaired_ShortestWaitNoWorseUnderCongestion(t *testing.T) {
	// GIVEN the reference network, congested at 0.3 min between arrivals
	base := sim.DefaultConfig()
	base.NumDelaysRequired = 3000

	// WHEN both policies run on the same five seeds
	rows, err := RunPaired(base, Seeds(100, 2, 5))
	require.NoError(t, err)
	closest := make([]float64, len(rows))
	shortest := make([]float64, len(rows))
	for i, r := range rows {
		closest[i] = r.Closest.AvgWaitTime
		shortest[i] = r.Shortest.AvgWaitTime
	}
	ci, err := analysis.PairedConfidenceInterval(closest, shortest, analysis.DefaultConfidence)
	require.NoError(t, err)

	// THEN closest-first minus shortest-wait is not negative on average
	assert.Equal(t, 5, ci.Replications)
	assert.GreaterOrEqual(t, ci.MeanDiff, 0.0, "differences: %v", ci.Differences)
}
