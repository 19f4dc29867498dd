package main

import (
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"deepdrift.game/internal/persistence/snapshot"
)

// Offline inspection of campaign data: snapshots and the round index.
func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "snapshot":
			snapshotCmd(os.Args[2:])
			return
		case "rounds":
			roundsCmd(os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

func listCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	campaignID := fs.String("campaign", "", "campaign id (optional)")
	_ = fs.Parse(args)

	base := filepath.Join(*dataDir, "campaigns")
	if *campaignID != "" {
		base = filepath.Join(base, *campaignID, "snapshots")
	}
	entries, err := os.ReadDir(base)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}
	for _, e := range entries {
		fmt.Println(e.Name())
	}
}

func snapshotCmd(args []string) {
	fs := flag.NewFlagSet("snapshot", flag.ExitOnError)
	path := fs.String("path", "", "snapshot path")
	full := fs.Bool("full", false, "dump the full snapshot as JSON")
	_ = fs.Parse(args)

	if *path == "" {
		fmt.Fprintln(os.Stderr, "missing -path")
		os.Exit(2)
	}
	snap, err := snapshot.Read(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read snapshot:", err)
		os.Exit(1)
	}
	if *full {
		b, _ := json.MarshalIndent(snap, "", "  ")
		fmt.Println(string(b))
		return
	}
	fmt.Printf("campaign=%s tick=%d seed=%s locations=%d\n",
		snap.Header.CampaignID, snap.Header.Tick, snap.Seed, snap.NumLocations)
	fmt.Printf("money=%d passed_levels=%d playtime=%.0fs first_round=%v\n",
		snap.Money, snap.TotalPassedLevels, snap.TotalPlayTime, snap.IsFirstRound)
	fmt.Printf("current=%s selected=%s crew=%d\n",
		snap.CurrentLocation, snap.SelectedLocation, len(snap.Crew))
	for id, v := range snap.Reputations {
		fmt.Printf("reputation %s=%.1f\n", id, v)
	}
	if snap.MainSubmarine != nil {
		fmt.Printf("main_sub=%s\n", snap.MainSubmarine.Name)
	}
	if snap.PendingSubSwitch != nil {
		fmt.Printf("pending_switch=%s transfer_items=%v\n", snap.PendingSubSwitch.Name, snap.TransferItems)
	}
}

func roundsCmd(args []string) {
	fs := flag.NewFlagSet("rounds", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	campaignID := fs.String("campaign", "campaign_1", "campaign id")
	limit := fs.Int("limit", 20, "max rows")
	_ = fs.Parse(args)

	dbPath := filepath.Join(*dataDir, "campaigns", *campaignID, "index.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open db:", err)
		os.Exit(1)
	}
	defer db.Close()

	rows, err := db.Query(`SELECT tick, transition, from_location, to_location, level_seed, mirror, passed_levels, money, mission_count, recorded_at
		FROM rounds ORDER BY tick DESC LIMIT ?`, *limit)
	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			tick, passed, money, missions int64
			mirror                        int
			transition, from, to          string
			seed, recordedAt              string
		)
		if err := rows.Scan(&tick, &transition, &from, &to, &seed, &mirror, &passed, &money, &missions, &recordedAt); err != nil {
			fmt.Fprintln(os.Stderr, "scan:", err)
			os.Exit(1)
		}
		fmt.Printf("tick=%d %s %s->%s seed=%s mirror=%d passed=%d money=%d missions=%d at=%s\n",
			tick, transition, from, to, seed, mirror, passed, money, missions, recordedAt)
	}
	if err := rows.Err(); err != nil {
		fmt.Fprintln(os.Stderr, "rows:", err)
		os.Exit(1)
	}
}
