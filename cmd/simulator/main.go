package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"math/rand"
	"os/signal"
	"syscall"
	"time"

	nuts "github.com/vaudience/go-nuts"

	"github.com/itsatony/trackhub/internal/config"
	"github.com/itsatony/trackhub/internal/models"
	"github.com/itsatony/trackhub/internal/queue/rabbitmq"
	"github.com/itsatony/trackhub/internal/simulator"
)

// The simulator stands in for a device fleet: every tick it walks
// each configured device one random step and publishes the position
// to the ingest queue.
func main() {
	configPath := flag.String("c", "", "path to config file")
	seed := flag.Int64("seed", 0, "random seed (0 = time-based)")
	flag.Parse()

	nuts.InitVersion()
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	q, err := rabbitmq.New(cfg.Queue)
	if err != nil {
		log.Fatalf("Failed to connect to queue: %v", err)
	}
	defer q.Close()

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	gen := simulator.NewGenerator(simulator.Bounds{
		LatMin: cfg.Simulator.LatMin,
		LatMax: cfg.Simulator.LatMax,
		LonMin: cfg.Simulator.LonMin,
		LonMax: cfg.Simulator.LonMax,
	}, cfg.Simulator.Step, rand.New(rand.NewSource(*seed)))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	nuts.L.Infof("[Simulator] Publishing positions for %d devices every %s", len(cfg.Devices), cfg.Simulator.Interval)

	lastPositions := make(map[string]*simulator.Position)
	ticker := time.NewTicker(cfg.Simulator.Interval)
	defer ticker.Stop()

	for {
		tick(ctx, cfg.Devices, gen, lastPositions, q)

		select {
		case <-ctx.Done():
			nuts.L.Infof("[Simulator] Shutting down")
			return
		case <-ticker.C:
		}
	}
}

func tick(ctx context.Context, devices []string, gen *simulator.Generator, lastPositions map[string]*simulator.Position, q *rabbitmq.Queue) {
	for _, deviceID := range devices {
		pos := gen.Next(lastPositions[deviceID])
		lastPositions[deviceID] = &pos

		event := models.QueuedEvent{
			DeviceID:  deviceID,
			Timestamp: time.Now().UTC().Unix(),
			Latitude:  pos.Latitude,
			Longitude: pos.Longitude,
		}
		body, err := json.Marshal(event)
		if err != nil {
			nuts.L.Errorf("[Simulator] Failed to encode event for %s: %v", deviceID, err)
			continue
		}

		if err := q.Publish(ctx, body); err != nil {
			nuts.L.Errorf("[Simulator] Failed to publish for %s: %v", deviceID, err)
			continue
		}
		nuts.L.Debugf("[Simulator] %s -> %f, %f", deviceID, pos.Latitude, pos.Longitude)
	}
}
