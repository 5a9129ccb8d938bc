// Command vision is the flash detection daemon. It ingests RGBA frames over
// UDP chunks or HTTP, runs them through the detection pipeline, persists
// detections to sqlite, and fires configured trigger sinks.
package main

import (
	"context"
	"flag"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/glint-data/flash.report/internal/api"
	"github.com/glint-data/flash.report/internal/capture"
	"github.com/glint-data/flash.report/internal/config"
	"github.com/glint-data/flash.report/internal/db"
	"github.com/glint-data/flash.report/internal/monitoring"
	"github.com/glint-data/flash.report/internal/trigger"
	"github.com/glint-data/flash.report/internal/vision"
)

var (
	listen      = flag.String("listen", ":8081", "HTTP listen address")
	udpAddr     = flag.String("udp", ":9000", "UDP listen address for frame chunks (empty disables)")
	dbFile      = flag.String("db", "detections.db", "Path to the sqlite detection store")
	width       = flag.Int("width", 640, "Frame width in pixels")
	height      = flag.Int("height", 480, "Frame height in pixels")
	configPath  = flag.String("config", "", "Path to a tuning config JSON file")
	sessionNote = flag.String("session-note", "", "Free-form note stored with this session")
	triggerPort = flag.String("trigger-port", "", "Serial port for the hardware trigger (empty disables)")
	triggerBaud = flag.Int("trigger-baud", 115200, "Baud rate for the trigger port")
	replayFile  = flag.String("replay", "", "Replay a recorded PCAP chunk stream instead of listening (requires pcap build)")
	replaySpeed = flag.Float64("replay-speed", 1.0, "Replay speed multiplier (0 = as fast as possible)")
	plotsDir    = flag.String("plots-dir", "", "Directory for end-of-run detection plots (empty disables)")
	verbose     = flag.Bool("verbose", false, "Enable per-detection and per-packet diagnostic logging")
)

func main() {
	flag.Parse()

	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	// Ops summaries always log; diag streams only with -verbose.
	var diag io.Writer
	if *verbose {
		diag = os.Stderr
	}
	vision.SetLogWriters(os.Stderr, diag)
	capture.SetLogWriter(diag)

	tuning := config.EmptyTuningConfig()
	if *configPath != "" {
		loaded, err := config.LoadTuningConfig(*configPath)
		if err != nil {
			log.Fatalf("failed to load tuning config: %v", err)
		}
		tuning = loaded
		log.Printf("loaded tuning config from %s", *configPath)
	}

	database, err := db.OpenDB(*dbFile)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer database.Close()
	if err := database.MigrateUp(); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	proc, err := vision.NewFrameProcessor(*width, *height, tuning.ProcessorOptions()...)
	if err != nil {
		log.Fatalf("failed to create frame processor: %v", err)
	}
	defer proc.Close()

	if err := database.CreateSession(db.Session{
		ID:     proc.SessionID(),
		Width:  *width,
		Height: *height,
		Note:   *sessionNote,
	}); err != nil {
		log.Fatalf("failed to create session: %v", err)
	}
	log.Printf("session %s started (%dx%d)", proc.SessionID(), *width, *height)

	sinks := trigger.MultiSink{trigger.LogSink{}}
	if *triggerPort != "" {
		serialSink, err := trigger.NewSerialSink(*triggerPort, trigger.PortOptions{BaudRate: *triggerBaud})
		if err != nil {
			log.Fatalf("failed to open trigger port: %v", err)
		}
		sinks = append(sinks, serialSink)
		log.Printf("trigger armed on %s at %d baud", *triggerPort, *triggerBaud)
	}
	defer sinks.Close()

	plotter := monitoring.NewDetectionPlotter()
	if *plotsDir != "" {
		if err := plotter.Start(*plotsDir); err != nil {
			log.Fatalf("failed to start detection plotter: %v", err)
		}
	}

	// ingest is the single entry point for frames from every source. The
	// processor is single-threaded; the mutex serializes UDP and HTTP
	// submissions.
	var ingestMu sync.Mutex
	ingest := func(raw []byte) (*vision.Detection, error) {
		ingestMu.Lock()
		det, err := proc.Process(raw)
		ingestMu.Unlock()
		if err != nil || det == nil {
			return det, err
		}

		if err := database.RecordDetection(db.DetectionRecord{
			SessionID:      proc.SessionID(),
			FrameSeq:       int64(det.FrameSeq),
			X:              det.X,
			Y:              det.Y,
			Confidence:     det.Confidence,
			Magnitude:      det.Magnitude,
			PeakBrightness: det.PeakBrightness,
		}); err != nil {
			log.Printf("failed to record detection: %v", err)
		}
		if err := sinks.Fire(*det); err != nil {
			log.Printf("trigger error: %v", err)
		}
		plotter.Record(proc.SessionID(), *det)
		return det, nil
	}

	onTune := func(c *config.TuningConfig) {
		ingestMu.Lock()
		proc.SetThresholds(c.GetBrightnessThreshold(), c.GetMotionThreshold())
		ingestMu.Unlock()
		log.Printf("tuning updated: brightness=%.3f motion=%.3f",
			c.GetBrightnessThreshold(), c.GetMotionThreshold())
	}

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	assembler := capture.NewFrameAssembler(capture.AssemblerConfig{
		FrameSize:  proc.Config().FrameSize(),
		MaxPending: tuning.GetMaxPendingFrames(),
		Timeout:    tuning.GetAssembleTimeout(),
		OnFrame: func(frameSeq uint32, frame []byte) {
			if _, err := ingest(frame); err != nil {
				log.Printf("frame %d rejected: %v", frameSeq, err)
			}
		},
	})
	packetStats := capture.NewPacketStats()

	switch {
	case *replayFile != "":
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer stop()
			err := capture.ReplayPCAPFile(ctx, *replayFile, assembler, packetStats, capture.ReplayConfig{
				SpeedMultiplier: *replaySpeed,
				UDPPort:         udpPortFromAddr(*udpAddr),
			})
			if err != nil && err != context.Canceled {
				log.Printf("replay failed: %v", err)
			}
		}()
	case *udpAddr != "":
		listener := capture.NewUDPListener(capture.UDPListenerConfig{
			Address:     *udpAddr,
			Stats:       packetStats,
			Assembler:   assembler,
			LogInterval: tuning.GetStatsInterval(),
		})
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := listener.Start(ctx); err != nil && err != context.Canceled {
				log.Printf("UDP listener failed: %v", err)
			}
		}()
	}

	// Periodic pipeline stats, same cadence as the packet stats.
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(tuning.GetStatsInterval())
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				proc.Stats().LogStats()
			}
		}
	}()

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := api.NewServer(proc, ingest, database, tuning, onTune).ServeMux()
		database.AttachAdminRoutes(mux)
		monitoring.NewChartServer(database).RegisterRoutes(mux)

		server := &http.Server{
			Addr:    *listen,
			Handler: api.LoggingMiddleware(mux),
		}

		go func() {
			log.Printf("HTTP server listening on %s", *listen)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
			if err := server.Close(); err != nil {
				log.Printf("HTTP server force close error: %v", err)
			}
		}
	}()

	wg.Wait()

	if plotter.IsEnabled() {
		plotter.Stop()
		if n, err := plotter.GeneratePlots(); err != nil {
			log.Printf("failed to generate plots: %v", err)
		} else if n > 0 {
			log.Printf("wrote %d plots to %s", n, *plotsDir)
		}
	}

	log.Printf("Graceful shutdown complete")
}

// udpPortFromAddr extracts the numeric port from a listen address like
// ":9000" for the replay BPF filter. Returns 0 (no filter) on parse failure.
func udpPortFromAddr(addr string) int {
	if addr == "" {
		return 0
	}
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 0
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0
	}
	return port
}
