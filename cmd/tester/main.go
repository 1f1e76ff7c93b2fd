// Command tester exercises a running chat server the way real clients do:
// it dials N concurrent TCP connections, runs the nickname handshake, has
// every client broadcast timestamped lines, and reports join and delivery
// latencies in a summary table.
//
// Message payloads are nanosecond timestamps, so any receiving client can
// compute the broadcast latency without clock coordination (everything runs
// in one process).
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

type result struct {
	nickname    string
	joinLatency time.Duration
	sent        int
	received    int
	totalLag    time.Duration
	err         error
}

func main() {
	addr := flag.String("addr", "localhost:5555", "chat server address")
	clients := flag.Int("clients", 10, "number of concurrent clients")
	messages := flag.Int("messages", 20, "messages sent by each client")
	interval := flag.Duration("interval", 50*time.Millisecond, "delay between messages")
	settle := flag.Duration("settle", time.Second, "drain time after the last send")
	flag.Parse()

	header := fmt.Sprintf("  ====== chat-room tester: %d clients x %d messages -> %s ======", *clients, *messages, *addr)
	fmt.Println(color.New(color.BgBlack, color.FgGreen).Render(header))

	results := make([]result, *clients)
	var wg sync.WaitGroup
	wg.Add(*clients)
	for i := 0; i < *clients; i++ {
		go func(i int) {
			defer wg.Done()
			results[i] = runClient(*addr, *messages, *interval, *settle)
		}(i)
	}
	wg.Wait()

	render(results)
}

func runClient(addr string, messages int, interval, settle time.Duration) result {
	// Nicknames must be ASCII alphanumeric; strip the UUID hyphens.
	r := result{nickname: "load" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]}

	start := time.Now()
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		r.err = err
		return r
	}
	defer conn.Close()

	reader := bufio.NewReader(conn)
	if _, err = reader.ReadString('\n'); err != nil { // nickname prompt
		r.err = err
		return r
	}
	if _, err = fmt.Fprintf(conn, "%s\n", r.nickname); err != nil {
		r.err = err
		return r
	}
	welcome, err := reader.ReadString('\n')
	if err != nil {
		r.err = err
		return r
	}
	if !strings.HasPrefix(welcome, "* Welcome") {
		r.err = fmt.Errorf("join refused: %s", strings.TrimSpace(welcome))
		return r
	}
	r.joinLatency = time.Since(start)

	// Reader side: every "[nick] <nanos>" line yields one latency sample.
	var mu sync.Mutex
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				return
			}
			line = strings.TrimRight(line, "\n")
			idx := strings.Index(line, "] ")
			if !strings.HasPrefix(line, "[") || idx < 0 {
				continue // presence line
			}
			nanos, err := strconv.ParseInt(line[idx+2:], 10, 64)
			if err != nil {
				continue
			}
			mu.Lock()
			r.received++
			r.totalLag += time.Since(time.Unix(0, nanos))
			mu.Unlock()
		}
	}()

	for i := 0; i < messages; i++ {
		if _, err = fmt.Fprintf(conn, "%d\n", time.Now().UnixNano()); err != nil {
			r.err = err
			return r
		}
		r.sent++
		time.Sleep(interval)
	}

	// Let in-flight broadcasts land before hanging up.
	time.Sleep(settle)
	_ = conn.SetReadDeadline(time.Now())
	<-readerDone

	mu.Lock()
	defer mu.Unlock()
	return r
}

func render(results []result) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Client", "Join", "Sent", "Received", "Avg lag", "Error"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	var failures int
	for _, r := range results {
		avg := time.Duration(0)
		if r.received > 0 {
			avg = r.totalLag / time.Duration(r.received)
		}
		errText := ""
		if r.err != nil {
			errText = r.err.Error()
			failures++
		}
		table.Append([]string{
			r.nickname,
			r.joinLatency.Round(time.Microsecond).String(),
			strconv.Itoa(r.sent),
			strconv.Itoa(r.received),
			avg.Round(time.Microsecond).String(),
			errText,
		})
	}
	table.Render()

	if failures > 0 {
		log.Fatalf("%d client(s) failed", failures)
	}
	color.Green.Println("All clients completed")
}
