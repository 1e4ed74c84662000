package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"time"
)

type AnyEvent map[string]any

func main() {
	addr := flag.String("addr", "127.0.0.1:7070", "ingestion events server address")
	pretty := flag.Bool("pretty", true, "pretty print JSON events")
	flag.Parse()

	for {
		if err := run(*addr, *pretty); err != nil {
			log.Printf("[watch-client] disconnected: %v", err)
		}
		time.Sleep(1 * time.Second) // auto reconnect
	}
}

func run(addr string, pretty bool) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	log.Printf("[watch-client] connected to %s", addr)

	sc := bufio.NewScanner(conn)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := sc.Bytes()
		fmt.Println(format(line, pretty))
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return os.ErrClosed
}

// format renders one event line. Run results get a one-line summary
// ahead of the JSON body.
func format(line []byte, pretty bool) string {
	var obj AnyEvent
	if err := json.Unmarshal(line, &obj); err != nil {
		return string(line)
	}

	var summary string
	switch obj["type"] {
	case "ingest.completed":
		if st, ok := obj["stats"].(map[string]any); ok {
			summary = fmt.Sprintf("run %v ok: %v listings, %v new, %v duplicates\n",
				obj["run_id"], st["total"], st["new_books"], st["duplicates"])
		}
	case "ingest.failed":
		summary = fmt.Sprintf("run %v FAILED: %v\n", obj["run_id"], obj["error"])
	}

	if !pretty {
		return summary + string(line)
	}
	b, _ := json.MarshalIndent(obj, "", "  ")
	return summary + string(b)
}
