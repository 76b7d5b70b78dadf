// eyegle-watch tails the Eyegle event stream from the terminal.
// Useful for checking calibration progress and gate verdicts without
// opening the dashboard.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

type event struct {
	Kind    string          `json:"kind"`
	Time    time.Time       `json:"time"`
	Payload json.RawMessage `json:"payload"`
}

func main() {
	addr := flag.String("addr", "localhost:8742", "Eyegle API address")
	cursor := flag.Bool("cursor", false, "Include cursor position events (noisy)")
	flag.Parse()

	url := fmt.Sprintf("ws://%s/ws/events", *addr)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect %s: %v\n", url, err)
		os.Exit(1)
	}
	defer conn.Close()

	fmt.Printf("watching %s\n", url)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var ev event
		if err := json.Unmarshal(data, &ev); err != nil {
			continue
		}
		if ev.Kind == "cursor" && !*cursor {
			continue
		}
		fmt.Printf("%s  %-12s %s\n", ev.Time.Format("15:04:05.000"), ev.Kind, ev.Payload)
	}
}
