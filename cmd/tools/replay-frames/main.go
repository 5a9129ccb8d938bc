// Command replay-frames feeds a recorded raw frame file (as written by
// gen-frames -out) through the detection pipeline offline and prints each
// detection as a JSON line plus a run summary.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/glint-data/flash.report/internal/config"
	"github.com/glint-data/flash.report/internal/vision"
)

var (
	inFile     = flag.String("in", "", "Raw frame file to replay (required)")
	width      = flag.Int("width", 640, "Frame width in pixels")
	height     = flag.Int("height", 480, "Frame height in pixels")
	configPath = flag.String("config", "", "Path to a tuning config JSON file")
)

func main() {
	flag.Parse()

	if *inFile == "" {
		log.Fatal("-in is required")
	}

	tuning := config.EmptyTuningConfig()
	if *configPath != "" {
		loaded, err := config.LoadTuningConfig(*configPath)
		if err != nil {
			log.Fatalf("failed to load tuning config: %v", err)
		}
		tuning = loaded
	}

	proc, err := vision.NewFrameProcessor(*width, *height, tuning.ProcessorOptions()...)
	if err != nil {
		log.Fatalf("failed to create frame processor: %v", err)
	}
	defer proc.Close()

	f, err := os.Open(*inFile)
	if err != nil {
		log.Fatalf("failed to open %s: %v", *inFile, err)
	}
	defer f.Close()

	frameSize := proc.Config().FrameSize()
	frame := make([]byte, frameSize)
	enc := json.NewEncoder(os.Stdout)

	detections := 0
	start := time.Now()

	for {
		_, err := io.ReadFull(f, frame)
		if err == io.EOF {
			break
		}
		if err == io.ErrUnexpectedEOF {
			log.Printf("warning: trailing partial frame ignored")
			break
		}
		if err != nil {
			log.Fatalf("read failed: %v", err)
		}

		det, err := proc.Process(frame)
		if err != nil {
			log.Fatalf("frame %d: %v", proc.FrameSeq(), err)
		}
		if det != nil {
			detections++
			if err := enc.Encode(det); err != nil {
				log.Fatalf("failed to encode detection: %v", err)
			}
		}
	}

	frames, bytes, _, processTime := proc.Stats().Snapshot()
	elapsed := time.Since(start)
	fmt.Fprintf(os.Stderr, "replayed %d frames (%d MB) in %v: %d detections, avg process %v\n",
		frames, bytes/(1024*1024), elapsed.Round(time.Millisecond), detections,
		time.Duration(int64(processTime)/max(frames, 1)))
}
