// distance-sim stands in for the ultrasonic sensor node during
// development: it connects to the daemon's sensor port and replays an
// approach/linger/retreat distance curve over the same line protocol
// the real sender uses.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	addr := flag.String("addr", "localhost:5000", "daemon sensor address")
	interval := flag.Duration("interval", 1*time.Second, "send interval")
	far := flag.Float64("far", 200, "starting distance in cm")
	near := flag.Float64("near", 30, "closest approach in cm")
	step := flag.Float64("step", 15, "cm per tick while moving")
	linger := flag.Int("linger", 8, "ticks to linger at closest approach")
	jitter := flag.Float64("jitter", 1.5, "random noise amplitude in cm")
	flag.Parse()

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dial %s: %v\n", *addr, err)
		os.Exit(1)
	}
	defer conn.Close()
	fmt.Printf("connected to %s, sending every %s\n", *addr, *interval)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	dist := *far
	phase := "approach"
	lingered := 0

	for {
		select {
		case <-sig:
			fmt.Println("\nbye")
			return
		case <-ticker.C:
		}

		switch phase {
		case "approach":
			dist -= *step
			if dist <= *near {
				dist = *near
				phase = "linger"
			}
		case "linger":
			lingered++
			if lingered >= *linger {
				phase = "retreat"
			}
		case "retreat":
			dist += *step
			if dist >= *far {
				dist = *far
				phase = "approach"
				lingered = 0
			}
		}

		noisy := dist + (rand.Float64()*2-1)*(*jitter)
		if _, err := fmt.Fprintf(conn, "%.2f\n", noisy); err != nil {
			fmt.Fprintf(os.Stderr, "send: %v\n", err)
			return
		}
		fmt.Printf("sent %.2f cm (%s)\n", noisy, phase)
	}
}
