// Manual backfill of unsynced prospects to the hosted store.
//
// The running server drains its own queue; this script exists for
// recovery after the queue key was lost (redis wipe) while prospects
// still carry pending_sync, and for first-time pushes of a database
// restored from backup.
//
// Usage: go run scripts/backfill_remote.go

package main

import (
	"context"
	"log"

	"scout_crm_backend/internal/config"
	"scout_crm_backend/internal/model"
	"scout_crm_backend/internal/repository"
	"scout_crm_backend/internal/service"
	"scout_crm_backend/pkg/database"
	"scout_crm_backend/pkg/logger"
)

func main() {
	// Same loader as the server, so the remote_store section and its
	// env overrides bind exactly the way they do in production.
	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger.InitLogger(cfg)

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	prospects := repository.NewProspectRepository(db)
	remote := service.NewRemoteStoreService(cfg.RemoteStore)

	var pending []model.Prospect
	if err := db.Where("pending_sync = ?", true).Order("created_at ASC").Find(&pending).Error; err != nil {
		log.Fatalf("failed to list pending prospects: %v", err)
	}
	log.Printf("found %d prospects pending sync", len(pending))

	ctx := context.Background()
	pushed := 0
	for i := range pending {
		p := &pending[i]
		remoteID, err := remote.InsertProspect(ctx, p)
		if err != nil {
			log.Printf("stopping: %s failed to sync: %v", p.ID, err)
			break
		}
		if err := prospects.MarkSynced(p.ID, remoteID); err != nil {
			log.Fatalf("failed to record remote id for %s: %v", p.ID, err)
		}
		pushed++
	}

	log.Printf("done, pushed %d of %d", pushed, len(pending))
}
