package main

import (
	"bufio"
	"chat-hub/domain"
	"chat-hub/infrastructure/ws"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"sync"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	ServerURL string `env:"CHAT_SERVER_URL,default=ws://localhost:8080/ws"`
	UserName  string `env:"CHAT_USER_NAME"`
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

// run handles the WebSocket client lifecycle: connect, announce the user,
// then interleave stdin input with the broadcast stream until Ctrl+C.
func run() (int, error) {
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	name := config.UserName
	if name == "" {
		fmt.Print("Your name: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return exitConfig, err
		}
		name = strings.TrimSpace(line)
	}
	if name == "" {
		return exitConfig, fmt.Errorf("a name is required")
	}

	conn, _, err := websocket.DefaultDialer.Dial(config.ServerURL, nil)
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to %s: %w", config.ServerURL, err)
	}
	defer conn.Close()

	// Announce the user; the JOIN comes back via the broadcast stream.
	if err := conn.WriteJSON(ws.InboundFrame{
		Destination: domain.DestinationAddUser,
		Sender:      name,
		Type:        string(domain.KindJoin),
	}); err != nil {
		return exitRuntime, fmt.Errorf("failed to join: %w", err)
	}

	color.Greenln(">>> Connected to " + config.ServerURL + " (Ctrl+C to quit, /who for the roster)")

	who := &roster{present: make(map[string]struct{})}
	done := make(chan struct{})
	go receive(conn, who, done)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	input := readLines()
	for {
		select {
		case <-interrupt:
			// Clean close so the server publishes our LEAVE right away.
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return exitOK, nil
		case <-done:
			return exitRuntime, fmt.Errorf("server closed the connection")
		case line, ok := <-input:
			if !ok {
				return exitOK, nil
			}
			if line == "/who" {
				printRoster(who)
				continue
			}
			err := conn.WriteJSON(ws.InboundFrame{
				Destination: domain.DestinationSendMessage,
				Sender:      name,
				Content:     line,
				Type:        string(domain.KindChat),
			})
			if err != nil {
				return exitRuntime, fmt.Errorf("send failed: %w", err)
			}
		}
	}
}

// roster tracks who is present. The receive goroutine updates it while
// the input loop reads it for /who, hence the lock.
type roster struct {
	mu      sync.Mutex
	present map[string]struct{}
}

func (r *roster) add(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.present[name] = struct{}{}
}

func (r *roster) remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.present, name)
}

func (r *roster) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.present))
	for n := range r.present {
		names = append(names, n)
	}
	return names
}

// receive prints the broadcast stream and tracks who is present.
func receive(conn *websocket.Conn, who *roster, done chan struct{}) {
	defer close(done)
	for {
		var frame ws.OutboundFrame
		if err := conn.ReadJSON(&frame); err != nil {
			return
		}
		switch domain.EventKind(frame.Type) {
		case domain.KindJoin:
			who.add(frame.Sender)
			color.Greenln(fmt.Sprintf("* %s joined", frame.Sender))
		case domain.KindLeave:
			who.remove(frame.Sender)
			color.Redln(fmt.Sprintf("* %s left", frame.Sender))
		default:
			fmt.Printf("%s %s\n", color.Cyan.Sprintf("<%s>", frame.Sender), frame.Content)
		}
	}
}

func printRoster(r *roster) {
	names := r.names()
	sort.Strings(names)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"User"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, n := range names {
		table.Append([]string{n})
	}
	table.Render()
}

// readLines pumps stdin lines into a channel so the main loop can also
// watch for signals and the connection going away.
func readLines() <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line != "" {
				out <- line
			}
		}
	}()
	return out
}
