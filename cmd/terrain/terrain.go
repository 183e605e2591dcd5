package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ridgeline-data/terrain.report/internal/analysis"
	"github.com/ridgeline-data/terrain.report/internal/config"
	"github.com/ridgeline-data/terrain.report/internal/db"
	"github.com/ridgeline-data/terrain.report/internal/elevation"
	"github.com/ridgeline-data/terrain.report/internal/version"
)

var (
	lat        = flag.Float64("lat", 0, "Latitude of the analysis center")
	lon        = flag.Float64("lon", 0, "Longitude of the analysis center")
	spacing    = flag.Float64("spacing", 0, "Grid point spacing in meters (0 uses the config value)")
	configPath = flag.String("config", "", "Path to a tuning config JSON file")
	devMode    = flag.Bool("dev", false, "Use the synthetic elevation source instead of the topo API")
	topoURL    = flag.String("topo-url", elevation.DefaultTopoBaseURL, "Base URL of the elevation API")
	dbFile     = flag.String("db", "", "If set, record the run in this sqlite database")
	refresh    = flag.Bool("refresh", false, "Bypass the result cache")
	recent     = flag.Int("recent", 0, "List the N most recent recorded runs and exit")
	best       = flag.Float64("best", -1, "List recorded runs with suitability at or above this value and exit")
	timeout    = flag.Duration("timeout", 2*time.Minute, "Overall analysis timeout")
	showVer    = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVer {
		fmt.Println(version.String())
		return
	}

	if *dbFile != "" && (*recent > 0 || *best >= 0) {
		if err := listRuns(*dbFile, *recent, *best); err != nil {
			log.Fatalf("failed to list runs: %v", err)
		}
		return
	}

	cfg := config.EmptyTuningConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadTuningConfig(*configPath)
		if err != nil {
			log.Fatalf("failed to load tuning config: %v", err)
		}
	}
	if *spacing > 0 {
		cfg.GridSpacingMeters = spacing
	}

	var source elevation.Source
	if *devMode {
		source = elevation.NewSyntheticSource()
	} else {
		source = elevation.NewTopoClient(*topoURL, nil)
	}

	analyzer := analysis.NewAnalyzer(elevation.NewProvider(source), cfg)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	result, err := analyzer.AnalyzeTerrainFeatures(ctx, *lat, *lon, *refresh)
	if err != nil {
		log.Fatalf("analysis failed: %v", err)
	}

	if *dbFile != "" {
		store, err := db.NewDB(*dbFile)
		if err != nil {
			log.Fatalf("failed to open run database: %v", err)
		}
		defer store.Close()

		runID, err := store.RecordAnalysis(result)
		if err != nil {
			log.Fatalf("failed to record run: %v", err)
		}
		log.Printf("recorded analysis run %s", runID)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		log.Fatalf("failed to encode result: %v", err)
	}
}

func listRuns(path string, recentN int, minSuitability float64) error {
	store, err := db.NewDB(path)
	if err != nil {
		return err
	}
	defer store.Close()

	var records []db.RunRecord
	if minSuitability >= 0 {
		records, err = store.BestSites(minSuitability, recentN)
	} else {
		records, err = store.RecentRuns(recentN)
	}
	if err != nil {
		return err
	}

	for _, r := range records {
		fmt.Printf("%s  (%.4f, %.4f)  features=%d corridors=%d funnels=%d  suitability=%.1f  %s\n",
			r.RunID, r.Lat, r.Lon,
			r.FeatureCount, r.CorridorCount, r.FunnelCount,
			r.OverallSuitability, r.Created.Format(time.RFC3339))
	}
	return nil
}
