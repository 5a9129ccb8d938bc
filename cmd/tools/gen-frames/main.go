// Command gen-frames produces synthetic RGBA frame sequences for exercising
// the detection pipeline: low-level background noise with a bright flash
// injected at intervals. Frames can be written to a raw file, streamed as
// UDP chunk packets, or posted to a running daemon over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net"
	"os"
	"time"

	"github.com/glint-data/flash.report/internal/api"
	"github.com/glint-data/flash.report/internal/capture"
	"github.com/glint-data/flash.report/internal/vision"
)

var (
	width      = flag.Int("width", 640, "Frame width in pixels")
	height     = flag.Int("height", 480, "Frame height in pixels")
	frames     = flag.Int("frames", 100, "Number of frames to generate")
	fps        = flag.Float64("fps", 30, "Frame pacing for UDP/HTTP output (0 = no pacing)")
	flashEvery = flag.Int("flash-every", 25, "Inject a flash every N frames (0 disables)")
	noise      = flag.Int("noise", 8, "Max per-channel background noise amplitude")
	seed       = flag.Int64("seed", 0, "Random seed (0 = time-based)")
	outFile    = flag.String("out", "", "Write concatenated raw frames to this file")
	udpAddr    = flag.String("udp", "", "Stream frames as chunk packets to this UDP address")
	httpURL    = flag.String("http", "", "POST frames to a daemon at this base URL")
)

func main() {
	flag.Parse()

	if *outFile == "" && *udpAddr == "" && *httpURL == "" {
		log.Fatal("need at least one of -out, -udp, or -http")
	}

	s := *seed
	if s == 0 {
		s = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(s))
	log.Printf("generating %d frames of %dx%d (seed %d)", *frames, *width, *height, s)

	sinks, closeSinks, err := buildSinks()
	if err != nil {
		log.Fatalf("failed to set up output: %v", err)
	}
	defer closeSinks()

	var pacing time.Duration
	if *fps > 0 {
		pacing = time.Duration(float64(time.Second) / *fps)
	}

	frameSize := *width * *height * vision.BytesPerPixel
	frame := make([]byte, frameSize)
	flashes := 0

	for seq := 1; seq <= *frames; seq++ {
		fillNoise(rng, frame, *noise)
		if *flashEvery > 0 && seq%*flashEvery == 0 {
			injectFlash(rng, frame, *width, *height)
			flashes++
		}

		for _, sink := range sinks {
			if err := sink(uint32(seq), frame); err != nil {
				log.Fatalf("frame %d: %v", seq, err)
			}
		}

		if pacing > 0 && seq < *frames {
			time.Sleep(pacing)
		}
	}

	log.Printf("done: %d frames, %d flashes", *frames, flashes)
}

type frameSink func(seq uint32, frame []byte) error

func buildSinks() (sinks []frameSink, closeAll func(), err error) {
	var closers []func()
	closeAll = func() {
		for _, c := range closers {
			c()
		}
	}

	if *outFile != "" {
		f, err := os.Create(*outFile)
		if err != nil {
			return nil, closeAll, fmt.Errorf("failed to create %s: %w", *outFile, err)
		}
		closers = append(closers, func() { f.Close() })
		sinks = append(sinks, func(_ uint32, frame []byte) error {
			_, err := f.Write(frame)
			return err
		})
	}

	if *udpAddr != "" {
		conn, err := net.Dial("udp", *udpAddr)
		if err != nil {
			return nil, closeAll, fmt.Errorf("failed to dial %s: %w", *udpAddr, err)
		}
		closers = append(closers, func() { conn.Close() })
		sinks = append(sinks, func(seq uint32, frame []byte) error {
			for _, chunk := range capture.SplitFrame(seq, frame) {
				if _, err := conn.Write(capture.EncodeChunk(chunk)); err != nil {
					return err
				}
			}
			return nil
		})
	}

	if *httpURL != "" {
		client := api.NewFrameClient(*httpURL, nil)
		sinks = append(sinks, func(seq uint32, frame []byte) error {
			det, err := client.PostFrame(context.Background(), frame)
			if err != nil {
				return err
			}
			if det != nil {
				log.Printf("frame %d: detection at (%.3f,%.3f) confidence %.3f",
					seq, det.X, det.Y, det.Confidence)
			}
			return nil
		})
	}

	return sinks, closeAll, nil
}

// fillNoise overwrites frame with dim random pixels, opaque alpha.
func fillNoise(rng *rand.Rand, frame []byte, amplitude int) {
	for i := 0; i < len(frame); i += vision.BytesPerPixel {
		if amplitude > 0 {
			frame[i] = byte(rng.Intn(amplitude + 1))
			frame[i+1] = byte(rng.Intn(amplitude + 1))
			frame[i+2] = byte(rng.Intn(amplitude + 1))
		} else {
			frame[i], frame[i+1], frame[i+2] = 0, 0, 0
		}
		frame[i+3] = 255
	}
}

// injectFlash paints a small full-white square at a random position.
func injectFlash(rng *rand.Rand, frame []byte, w, h int) {
	const size = 6
	cx := rng.Intn(w)
	cy := rng.Intn(h)

	for dy := -size / 2; dy < size/2; dy++ {
		for dx := -size / 2; dx < size/2; dx++ {
			x, y := cx+dx, cy+dy
			if x < 0 || x >= w || y < 0 || y >= h {
				continue
			}
			i := (y*w + x) * vision.BytesPerPixel
			frame[i], frame[i+1], frame[i+2], frame[i+3] = 255, 255, 255, 255
		}
	}
}
