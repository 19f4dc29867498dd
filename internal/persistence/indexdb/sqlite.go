package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"deepdrift.game/internal/persistence/snapshot"
	"deepdrift.game/internal/sim/catalogs"
	"deepdrift.game/internal/sim/tuning"
)

// SQLiteIndex is a secondary read-model over the campaign: a row per
// round transition and per snapshot, queryable offline with any sqlite
// client. Snapshots remain the source of truth; index writes are
// best-effort and never stall the simulation.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
}

type reqKind int

const (
	reqRound reqKind = iota + 1
	reqSnapshot
)

type req struct {
	kind     reqKind
	round    RoundRow
	snapshot snapshotRow
}

// RoundRow records one completed level transition.
type RoundRow struct {
	Tick          uint64
	Transition    string
	FromLocation  string
	ToLocation    string
	LevelSeed     string
	Mirror        bool
	PassedLevels  int
	Money         int
	MissionCount  int
	RecordedAtUTC string
}

type snapshotRow struct {
	Tick         uint64
	Path         string
	Seed         string
	Money        int
	PassedLevels int
	Locations    int
	Crew         int
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, 4096),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL suits the append-only write pattern; NORMAL durability is
	// enough for a rebuildable index.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS catalogs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS rounds (
			tick INTEGER NOT NULL,
			transition TEXT NOT NULL,
			from_location TEXT NOT NULL,
			to_location TEXT NOT NULL,
			level_seed TEXT NOT NULL,
			mirror INTEGER NOT NULL,
			passed_levels INTEGER NOT NULL,
			money INTEGER NOT NULL,
			mission_count INTEGER NOT NULL,
			recorded_at TEXT NOT NULL,
			PRIMARY KEY (tick, passed_levels)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_rounds_to_location ON rounds(to_location, tick);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			tick INTEGER PRIMARY KEY,
			path TEXT NOT NULL,
			seed TEXT NOT NULL,
			money INTEGER NOT NULL,
			passed_levels INTEGER NOT NULL,
			locations INTEGER NOT NULL,
			crew INTEGER NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// WriteRound enqueues a round transition row. Dropped silently if the
// indexer falls behind.
func (s *SQLiteIndex) WriteRound(row RoundRow) {
	if s == nil || s.closed.Load() {
		return
	}
	if row.RecordedAtUTC == "" {
		row.RecordedAtUTC = time.Now().UTC().Format(time.RFC3339Nano)
	}
	select {
	case s.ch <- req{kind: reqRound, round: row}:
	default:
	}
}

func (s *SQLiteIndex) RecordSnapshot(path string, snap snapshot.CampaignSnapshotV1) {
	if s == nil || s.closed.Load() {
		return
	}
	r := snapshotRow{
		Tick:         snap.Header.Tick,
		Path:         path,
		Seed:         snap.Seed,
		Money:        snap.Money,
		PassedLevels: snap.TotalPassedLevels,
		Locations:    snap.NumLocations,
		Crew:         len(snap.Crew),
	}
	select {
	case s.ch <- req{kind: reqSnapshot, snapshot: r}:
	default:
	}
}

// UpsertCatalogs stores the raw catalog files and applied tuning so an
// index db is self-describing.
func (s *SQLiteIndex) UpsertCatalogs(configDir string, cats *catalogs.Catalogs, tune tuning.Tuning) error {
	if s == nil {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	type kv struct {
		name   string
		digest string
		json   []byte
	}
	var rows []kv
	read := func(name, digest, file string) {
		b, err := os.ReadFile(filepath.Join(configDir, file))
		if err != nil {
			return
		}
		rows = append(rows, kv{name: name, digest: digest, json: b})
	}
	if configDir != "" {
		read("missions", cats.Missions.Digest, "missions.json")
		read("factions", cats.Factions.Digest, "factions.json")
		read("location_types", cats.LocationTypes.Digest, "location_types.json")
		read("items", cats.Items.Digest, "items.json")
	}
	{
		b, _ := json.Marshal(tune)
		sum := sha256.Sum256(b)
		rows = append(rows, kv{name: "tuning", digest: hex.EncodeToString(sum[:]), json: b})
	}

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO catalogs(name,digest,json,updated_at) VALUES(?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if r.name == "" || r.digest == "" || len(r.json) == 0 {
			continue
		}
		if _, err := stmt.Exec(r.name, r.digest, string(r.json), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertRound, _ := s.db.Prepare(`INSERT OR REPLACE INTO rounds(tick,transition,from_location,to_location,level_seed,mirror,passed_levels,money,mission_count,recorded_at) VALUES(?,?,?,?,?,?,?,?,?,?)`)
	insertSnapshot, _ := s.db.Prepare(`INSERT OR REPLACE INTO snapshots(tick,path,seed,money,passed_levels,locations,crew) VALUES(?,?,?,?,?,?,?)`)
	defer func() {
		if insertRound != nil {
			_ = insertRound.Close()
		}
		if insertSnapshot != nil {
			_ = insertSnapshot.Close()
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 64
		commitMaxWait = 2 * time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqRound:
			row := r.round
			if insertRound != nil {
				mirror := 0
				if row.Mirror {
					mirror = 1
				}
				if _, err := tx.Stmt(insertRound).Exec(
					int64(row.Tick),
					row.Transition,
					row.FromLocation,
					row.ToLocation,
					row.LevelSeed,
					mirror,
					row.PassedLevels,
					row.Money,
					row.MissionCount,
					row.RecordedAtUTC,
				); err != nil {
					rollback()
					continue
				}
				opCount++
			}

		case reqSnapshot:
			sn := r.snapshot
			if insertSnapshot != nil {
				if _, err := tx.Stmt(insertSnapshot).Exec(
					int64(sn.Tick),
					sn.Path,
					sn.Seed,
					sn.Money,
					sn.PassedLevels,
					sn.Locations,
					sn.Crew,
				); err != nil {
					rollback()
					continue
				}
				opCount++
			}
		}
		if tx != nil && (opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait) {
			commit()
		}
	}

	commit()
}
