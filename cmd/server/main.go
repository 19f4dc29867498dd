package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"deepdrift.game/internal/persistence/indexdb"
	plog "deepdrift.game/internal/persistence/log"
	"deepdrift.game/internal/persistence/snapshot"
	"deepdrift.game/internal/sim/campaign"
	"deepdrift.game/internal/sim/catalogs"
	"deepdrift.game/internal/sim/gamemap"
	"deepdrift.game/internal/sim/tuning"
	"deepdrift.game/internal/sim/vessel"
	"deepdrift.game/internal/transport/ws"
)

func main() {
	var (
		addr         = flag.String("addr", ":8080", "http listen address")
		campaignID   = flag.String("campaign", "campaign_1", "campaign id")
		seed         = flag.String("seed", "deepdrift", "map seed (used only when starting fresh)")
		numLocations = flag.Int("locations", 15, "map location count (fresh campaigns)")
		configDir    = flag.String("configs", "./configs", "config directory")
		dataDir      = flag.String("data", "./data", "runtime data directory")
		tuningPath   = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		disableDB    = flag.Bool("disable_db", false, "disable the sqlite round index")

		snapPath   = flag.String("snapshot", "", "path to snapshot to load (optional)")
		loadLatest = flag.Bool("load_latest_snapshot", true, "load latest snapshot from data dir if present (when -snapshot is empty)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", tp)
		tune.ApplyDefaults()
	}

	campaignDir := filepath.Join(*dataDir, "campaigns", *campaignID)
	snapDir := filepath.Join(campaignDir, "snapshots")
	_ = os.MkdirAll(snapDir, 0o755)

	var idx *indexdb.SQLiteIndex
	if !*disableDB {
		idx, err = indexdb.OpenSQLite(filepath.Join(campaignDir, "index.db"))
		if err != nil {
			logger.Fatalf("open index db: %v", err)
		}
		defer idx.Close()
		if err := idx.UpsertCatalogs(*configDir, cats, tune); err != nil {
			logger.Printf("index db: upsert catalogs: %v", err)
		}
	}

	snapshotToLoad := strings.TrimSpace(*snapPath)
	if snapshotToLoad == "" && *loadLatest {
		latest, err := snapshot.Latest(snapDir)
		if err != nil {
			logger.Fatalf("scan snapshots: %v", err)
		}
		snapshotToLoad = latest
	}

	var c *campaign.Campaign
	if snapshotToLoad != "" {
		snap, err := snapshot.Read(snapshotToLoad)
		if err != nil {
			logger.Fatalf("read snapshot: %v", err)
		}
		if snap.Header.CampaignID != "" && snap.Header.CampaignID != *campaignID {
			logger.Fatalf("snapshot campaign id mismatch: flag=%s snap=%s", *campaignID, snap.Header.CampaignID)
		}
		m, err := gamemap.Generate(snap.Seed, snap.NumLocations, cats)
		if err != nil {
			logger.Fatalf("regenerate map: %v", err)
		}
		c = campaign.New(cats, tune, m, logger, campaign.Options{})
		if err := c.Import(snap); err != nil {
			logger.Fatalf("import snapshot: %v", err)
		}
		logger.Printf("resumed from snapshot=%s tick=%d", filepath.Base(snapshotToLoad), snap.Header.Tick)
	} else {
		m, err := gamemap.Generate(*seed, *numLocations, cats)
		if err != nil {
			logger.Fatalf("generate map: %v", err)
		}
		c = campaign.New(cats, tune, m, logger, campaign.Options{})
		c.SetMainSubmarineInfo(defaultSubmarine())
		logger.Printf("fresh campaign seed=%s locations=%d", *seed, *numLocations)
	}

	if err := c.LoadInitialLevel(); err != nil {
		logger.Fatalf("load initial level: %v", err)
	}
	c.StartRound()

	rt := campaign.NewRuntime(c, *campaignID, snapDir, idx, logger)

	rounds := plog.NewRoundLogger(campaignDir)
	defer rounds.Close()
	rt.SetRoundLog(rounds)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mux := http.NewServeMux()
	srv := ws.NewServer(rt, logger)
	mux.HandleFunc("/v1/ws", srv.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	httpSrv := &http.Server{Addr: *addr, Handler: mux}
	go func() {
		logger.Printf("listening on %s", *addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http: %v", err)
		}
	}()

	err = rt.Run(ctx)
	logger.Printf("simulation loop stopped: %v", err)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(shutdownCtx)
}

// defaultSubmarine is the starter hull for fresh campaigns.
func defaultSubmarine() *vessel.SubmarineInfo {
	return &vessel.SubmarineInfo{
		Name:   "drifter",
		Type:   vessel.SubPlayer,
		TeamID: vessel.TeamPlayer,
		Hulls: []vessel.HullInfo{
			{ID: "bridge", X: 0, Y: 0},
			{ID: "cargo", X: 10, Y: 0},
			{ID: "ballast", IsWetRoom: true, X: 20, Y: 0},
		},
		CargoHull:  "cargo",
		Containers: []string{"steel_cabinet", "supply_crate"},
	}
}
