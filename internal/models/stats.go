package models

import "time"

// StatusCount pairs a lifecycle state with the number of rows holding it.
type StatusCount struct {
	Status string `db:"status" json:"status"`
	Count  int    `db:"count" json:"count"`
}

// EngineerWorkload is a dashboard row: one engineer's open repair count.
type EngineerWorkload struct {
	EngineerID string `db:"engineer_id" json:"engineer_id"`
	FullName   string `db:"full_name" json:"full_name"`
	Workload   int    `db:"workload" json:"workload"`
}

// OpsStats aggregates pipeline counts for the operations dashboard.
type OpsStats struct {
	Offers      []StatusCount      `json:"offers"`
	Deals       []StatusCount      `json:"deals"`
	Repairs     []StatusCount      `json:"repairs"`
	Engineers   []EngineerWorkload `json:"engineers"`
	GeneratedAt time.Time          `json:"generated_at"`
}
