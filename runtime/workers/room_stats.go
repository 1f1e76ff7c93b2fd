package workers

import (
	"context"
	"log/slog"
	"time"
)

// RoomInfo is the read-only view of the chat room the stats worker samples.
type RoomInfo interface {
	Len() int
	Roster() []string
}

// RoomStatsWorker periodically reports how many participants are registered.
// Sampling goes through the room's own accessors, so each tick briefly takes
// the membership lock; at chat-room scale this is negligible. It's okay if a
// sample lands between a join and its broadcast because metrics are
// indicative, not transactional.
type RoomStatsWorker struct {
	log            *slog.Logger
	room           RoomInfo
	metricInterval time.Duration
}

func NewRoomStatsWorker(log *slog.Logger, room RoomInfo, metricInterval time.Duration) *RoomStatsWorker {
	return &RoomStatsWorker{log: log, room: room, metricInterval: metricInterval}
}

func (w RoomStatsWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping room stats")
			return nil
		case <-ticker.C:
			w.log.Info("Room stats", "participants", w.room.Len(), "roster", w.room.Roster())
		}
	}
}
