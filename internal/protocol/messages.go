package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ClientName      string `json:"client_name"`
	ResumeToken     string `json:"resume_token,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	SessionID       string         `json:"session_id"`
	ClientID        string         `json:"client_id"`
	ResumeToken     string         `json:"resume_token"`
	CampaignParams  CampaignParams `json:"campaign_params"`
	Catalogs        CatalogDigests `json:"catalogs"`
}

type CampaignParams struct {
	TickRateHz   int    `json:"tick_rate_hz"`
	Seed         string `json:"seed"`
	NumLocations int    `json:"num_locations"`
	InitialMoney int    `json:"initial_money"`
}

type CatalogDigests struct {
	MissionsDigest      string `json:"missions_digest"`
	FactionsDigest      string `json:"factions_digest"`
	LocationTypesDigest string `json:"location_types_digest"`
	ItemsDigest         string `json:"items_digest"`
}

// ACT (client -> server): one campaign request. Cmd selects which of
// the optional payload fields apply.
type ActMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ID              string `json:"id"`
	Cmd             string `json:"cmd"`

	LocationID string `json:"location_id,omitempty"`
	MissionID  string `json:"mission_id,omitempty"`

	Price int `json:"price,omitempty"`

	HireID     string `json:"hire_id,omitempty"`
	HireName   string `json:"hire_name,omitempty"`
	HireSalary int    `json:"hire_salary,omitempty"`

	SubName       string `json:"sub_name,omitempty"`
	TransferItems bool   `json:"transfer_items,omitempty"`
}

// ACT commands.
const (
	CmdSelectLocation   = "select_location"
	CmdDeselectLocation = "deselect_location"
	CmdSelectMission    = "select_mission"
	CmdDeselectMission  = "deselect_mission"
	CmdPurchase         = "purchase"
	CmdHire             = "hire"
	CmdHullRepairs      = "purchase_hull_repairs"
	CmdItemRepairs      = "purchase_item_repairs"
	CmdReplaceShuttles  = "replace_lost_shuttles"
	CmdSwitchSub        = "switch_sub"
	CmdEndRound         = "end_round"
)

// ACK (server -> client): the outcome of one ACT.
type AckMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	AckFor          string `json:"ack_for"`
	Accepted        bool   `json:"accepted"`
	Code            string `json:"code,omitempty"`
	Message         string `json:"message,omitempty"`
	ServerTick      uint64 `json:"server_tick,omitempty"`
}

// STATE (server -> client): the replicated campaign view. Sent after
// WELCOME and whenever dirty flags flush; Flags names which sections
// changed ("money", "map", ...), empty meaning a full refresh.
type StateMsg struct {
	Type            string   `json:"type"`
	ProtocolVersion string   `json:"protocol_version"`
	Tick            uint64   `json:"tick"`
	Flags           []string `json:"flags,omitempty"`

	Money        int                `json:"money"`
	Reputations  map[string]float64 `json:"reputations,omitempty"`
	CurrentLoc   string             `json:"current_location,omitempty"`
	SelectedLoc  string             `json:"selected_location,omitempty"`
	Missions     []MissionRef       `json:"missions,omitempty"`
	Crew         []CrewRef          `json:"crew,omitempty"`
	MainSub      string             `json:"main_sub,omitempty"`
	PendingSub   string             `json:"pending_sub,omitempty"`
	IsFirstRound bool               `json:"is_first_round,omitempty"`
	PassedLevels int                `json:"passed_levels"`
}

type MissionRef struct {
	PrefabID string `json:"prefab_id"`
	Kind     string `json:"kind"`
	From     string `json:"from"`
	To       string `json:"to"`
}

type CrewRef struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Salary  int    `json:"salary"`
	NewHire bool   `json:"new_hire,omitempty"`
}

// EVENT (server -> client): push notifications between state flushes.
type EventMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            uint64 `json:"tick"`
	Event           string `json:"event"`

	// money_changed
	Delta   int `json:"delta,omitempty"`
	Balance int `json:"balance,omitempty"`

	// reputation_changed
	FactionID string  `json:"faction_id,omitempty"`
	RepDelta  float64 `json:"rep_delta,omitempty"`
	RepValue  float64 `json:"rep_value,omitempty"`

	// transition
	Transition string `json:"transition,omitempty"`
	LevelSeed  string `json:"level_seed,omitempty"`
	Mirror     bool   `json:"mirror,omitempty"`
}

// Event names.
const (
	EventMoneyChanged      = "money_changed"
	EventReputationChanged = "reputation_changed"
	EventTransition        = "transition"
)
