// watch tails the daemon's live event stream to the terminal.
// Useful in the field over SSH when the dashboard is out of reach.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/websocket"
)

func main() {
	url := flag.String("url", "ws://localhost:8080/ws/events", "event stream URL")
	flag.Parse()

	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dial %s: %v\n", *url, err)
		os.Exit(1)
	}
	defer conn.Close()
	fmt.Printf("watching %s\n", *url)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		conn.Close()
	}()

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var ev struct {
			Type          string          `json:"type"`
			CorrelationID string          `json:"correlation_id"`
			Timestamp     string          `json:"timestamp"`
			Payload       json.RawMessage `json:"payload"`
		}
		if err := json.Unmarshal(frame, &ev); err != nil {
			fmt.Printf("?? %s\n", frame)
			continue
		}

		corr := ev.CorrelationID
		if len(corr) > 8 {
			corr = corr[:8]
		}
		fmt.Printf("%s  %-16s %-8s %s\n", ev.Timestamp, ev.Type, corr, ev.Payload)
	}
}
