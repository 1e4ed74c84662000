// Package events pushes ingestion run results to connected watchers over
// line-delimited JSON (TCP) and websocket.
package events

import (
	"time"

	"bookhub/pkg/models"
)

const (
	TypeWelcome         = "welcome"
	TypeIngestCompleted = "ingest.completed"
	TypeIngestFailed    = "ingest.failed"
)

type IngestEvent struct {
	Type  string                 `json:"type"`
	RunID string                 `json:"run_id"`
	Stats *models.IngestionStats `json:"stats,omitempty"`
	Error string                 `json:"error,omitempty"`
	At    time.Time              `json:"at"`
}

type Welcome struct {
	Type      string `json:"type"`
	Transport string `json:"transport"`
	Clients   int    `json:"clients"`
}
