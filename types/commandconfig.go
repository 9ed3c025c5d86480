package types

import (
	"encoding/json"
	"fmt"
	"time"
)

type CommandConfig struct {
	GenesisCoinID string        `json:"genesis_coin_id"`
	TailHash      string        `json:"tail_hash"`
	TargetsPath   string        `json:"secure_the_bag_targets_path"`
	UnwindTargets []string      `json:"unwind_target_puzzle_hashes,omitempty"`
	LeafWidth     int           `json:"leaf_width"`
	ChiaRoot      string        `json:"chia_root,omitempty"`
	LookupDB      string        `json:"lookup_db,omitempty"`
	QueryTimeout  time.Duration `json:"query_timeout"`
	Concurrency   int           `json:"concurrency"`
	DryRun        bool          `json:"dry_run"`
	JSONOutput    bool          `json:"json"`
	MaxChildren   int           `json:"max_children"`
	LogLevel      string        `json:"log_level"`
	LogJson       bool          `json:"logjson"`
	DebugModules  string        `json:"debug,omitempty"`
	OTLPEndpoint  string        `json:"otlp_endpoint,omitempty"`
}

// String method returns the CommandConfig as a formatted JSON string
func (c *CommandConfig) String() string {
	jsonData, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Sprintf("Error marshaling JSON: %v", err)
	}
	return string(jsonData)
}
