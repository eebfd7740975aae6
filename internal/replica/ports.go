// Package replica handles background state replication: a heartbeat worker
// pushes full account snapshots to a replica, and the administrative restore
// pulls them back from a backup.
package replica

import (
	"context"

	"identity-manager/internal/account/models"
)

// ReplicaPort receives account snapshots from the heartbeat worker.
type ReplicaPort interface {
	PushSnapshot(ctx context.Context, accounts []models.Account) error
}

// BackupPort serves full snapshots for the restore operation. The source
// names the backup host and backupCanisterID the snapshot within it.
type BackupPort interface {
	Fetch(ctx context.Context, source, backupCanisterID string) ([]models.Account, error)
}
