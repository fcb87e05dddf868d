package notify

import (
	"encoding/json"
	"time"

	"github.com/MrJamesThe3rd/coinbag/internal/syncstore"
)

// SnapshotChanged announces a committed snapshot. Consumers fetch the data themselves.
type SnapshotChanged struct {
	Version   uint64    `json:"version"`
	SyncedAt  time.Time `json:"synced_at"`
	Count     int       `json:"count"`
	Timestamp time.Time `json:"timestamp"`
}

func NewSnapshotChanged(snap syncstore.Snapshot, now time.Time) SnapshotChanged {
	return SnapshotChanged{
		Version:   snap.Version,
		SyncedAt:  snap.SyncedAt,
		Count:     snap.Len(),
		Timestamp: now,
	}
}

func (m SnapshotChanged) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RefreshRequest asks the service to refresh. An empty mode means full.
type RefreshRequest struct {
	Mode      string    `json:"mode"`
	Timestamp time.Time `json:"timestamp"`
}

func RefreshRequestFromJSON(data []byte) (RefreshRequest, error) {
	var msg RefreshRequest
	if err := json.Unmarshal(data, &msg); err != nil {
		return RefreshRequest{}, err
	}

	return msg, nil
}
