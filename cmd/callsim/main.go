// callsim replays synthetic call turns against a running saheli server.
// It speaks loud PCM for a while, goes quiet to trigger the endpoint, and
// waits for the reply audio, printing per-turn timings.
package main

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sahelilabs/saheli/internal/audio"
)

type options struct {
	baseURL     string
	token       string
	profileID   string
	turns       int
	chunkMS     int
	speechMS    int
	silenceMS   int
	turnTimeout time.Duration
	verbose     bool
}

type wsEnvelope struct {
	Type    string `json:"type"`
	Name    string `json:"name,omitempty"`
	Base64  string `json:"base64,omitempty"`
	Message string `json:"message,omitempty"`
}

func main() {
	cfg, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "callsim: %v\n", err)
		os.Exit(2)
	}
	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "callsim: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() (options, error) {
	var cfg options
	var turnTimeoutMS int

	flag.StringVar(&cfg.baseURL, "base-url", "http://127.0.0.1:8080", "saheli base URL")
	flag.StringVar(&cfg.token, "token", "", "bearer token for the call websocket")
	flag.StringVar(&cfg.profileID, "profile-id", "priya", "persona to call")
	flag.IntVar(&cfg.turns, "turns", 3, "number of turns to replay")
	flag.IntVar(&cfg.chunkMS, "chunk-ms", 100, "audio chunk size in milliseconds")
	flag.IntVar(&cfg.speechMS, "speech-ms", 2000, "speech length per turn in milliseconds")
	flag.IntVar(&cfg.silenceMS, "silence-ms", 1700, "trailing quiet time per turn in milliseconds")
	flag.IntVar(&turnTimeoutMS, "turn-timeout-ms", 30000, "timeout waiting for reply audio per turn")
	flag.BoolVar(&cfg.verbose, "verbose", true, "print replay progress")
	flag.Parse()

	cfg.baseURL = strings.TrimRight(strings.TrimSpace(cfg.baseURL), "/")
	if cfg.baseURL == "" {
		return options{}, fmt.Errorf("base-url is required")
	}
	if strings.TrimSpace(cfg.token) == "" {
		return options{}, fmt.Errorf("token is required")
	}
	if cfg.turns <= 0 {
		return options{}, fmt.Errorf("turns must be > 0")
	}
	if cfg.chunkMS < 10 || cfg.chunkMS > 1000 {
		return options{}, fmt.Errorf("chunk-ms must be in [10,1000]")
	}
	if cfg.speechMS < 1000 {
		return options{}, fmt.Errorf("speech-ms must be at least 1000 to pass the minimum utterance size")
	}
	if cfg.silenceMS < 1600 {
		return options{}, fmt.Errorf("silence-ms must be at least 1600 to trigger the endpoint")
	}
	if turnTimeoutMS < 1000 {
		turnTimeoutMS = 1000
	}
	cfg.turnTimeout = time.Duration(turnTimeoutMS) * time.Millisecond
	return cfg, nil
}

func run(cfg options) error {
	wsURL, err := callWSURL(cfg.baseURL, cfg.token)
	if err != nil {
		return fmt.Errorf("build ws URL: %w", err)
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return fmt.Errorf("open websocket: %w", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(map[string]string{"type": "start-call", "profileId": cfg.profileID}); err != nil {
		return fmt.Errorf("send start-call: %w", err)
	}

	events := make(chan wsEnvelope, 64)
	readErr := make(chan error, 1)
	go readLoop(conn, events, readErr, cfg.verbose)

	if err := awaitEvent(events, readErr, "ready", cfg.turnTimeout); err != nil {
		return fmt.Errorf("await ready: %w", err)
	}

	speech := genSpeech(cfg.speechMS)
	quiet := genQuiet(cfg.silenceMS)

	for i := 0; i < cfg.turns; i++ {
		turnStart := time.Now()
		if cfg.verbose {
			fmt.Printf("callsim: turn %d/%d speech=%dms silence=%dms\n", i+1, cfg.turns, cfg.speechMS, cfg.silenceMS)
		}
		if err := sendPaced(conn, speech, cfg.chunkMS); err != nil {
			return fmt.Errorf("turn %d send speech: %w", i+1, err)
		}
		if err := sendPaced(conn, quiet, cfg.chunkMS); err != nil {
			return fmt.Errorf("turn %d send silence: %w", i+1, err)
		}
		if err := awaitEvent(events, readErr, "ai-audio", cfg.turnTimeout); err != nil {
			return fmt.Errorf("turn %d await reply: %w", i+1, err)
		}
		if cfg.verbose {
			fmt.Printf("callsim: turn %d reply after %s\n", i+1, time.Since(turnStart).Round(time.Millisecond))
		}
	}

	if err := conn.WriteJSON(map[string]string{"type": "end-call"}); err != nil {
		return fmt.Errorf("send end-call: %w", err)
	}
	if cfg.verbose {
		fmt.Println("callsim: replay completed")
	}
	return nil
}

func callWSURL(baseURL, token string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	switch strings.ToLower(u.Scheme) {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/v1/call/ws"
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func readLoop(conn *websocket.Conn, events chan<- wsEnvelope, readErr chan<- error, verbose bool) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			readErr <- err
			return
		}
		var evt wsEnvelope
		if err := json.Unmarshal(data, &evt); err != nil {
			continue
		}
		if verbose {
			switch evt.Type {
			case "ai-audio":
				fmt.Printf("callsim: <- ai-audio (%d base64 bytes)\n", len(evt.Base64))
			case "error":
				fmt.Printf("callsim: <- error: %s\n", evt.Message)
			default:
				fmt.Printf("callsim: <- %s\n", evt.Type)
			}
		}
		events <- evt
	}
}

func awaitEvent(events <-chan wsEnvelope, readErr <-chan error, wantType string, timeout time.Duration) error {
	deadline := time.After(timeout)
	for {
		select {
		case err := <-readErr:
			return fmt.Errorf("ws read: %w", err)
		case <-deadline:
			return fmt.Errorf("timed out waiting for %s", wantType)
		case evt := <-events:
			if evt.Type == wantType {
				return nil
			}
			if evt.Type == "error" {
				return fmt.Errorf("server error: %s", evt.Message)
			}
		}
	}
}

// genSpeech produces a 440Hz tone at speaking volume, PCM16LE at the call
// sample rate.
func genSpeech(ms int) []byte {
	samples := audio.SampleRate * ms / 1000
	out := make([]byte, samples*2)
	for i := 0; i < samples; i++ {
		v := int16(8000 * math.Sin(2*math.Pi*440*float64(i)/float64(audio.SampleRate)))
		binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
	}
	return out
}

// genQuiet produces near-silent room tone, below the speech threshold.
func genQuiet(ms int) []byte {
	samples := audio.SampleRate * ms / 1000
	out := make([]byte, samples*2)
	for i := 0; i < samples; i++ {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(i%3)))
	}
	return out
}

// sendPaced streams pcm as audio-chunk messages at realtime pacing.
func sendPaced(conn *websocket.Conn, pcm []byte, chunkMS int) error {
	chunkBytes := audio.SampleRate * 2 * chunkMS / 1000
	for off := 0; off < len(pcm); off += chunkBytes {
		end := off + chunkBytes
		if end > len(pcm) {
			end = len(pcm)
		}
		msg := map[string]any{
			"type":       "audio-chunk",
			"audio":      base64.StdEncoding.EncodeToString(pcm[off:end]),
			"sampleRate": audio.SampleRate,
		}
		if err := conn.WriteJSON(msg); err != nil {
			return err
		}
		time.Sleep(time.Duration(chunkMS) * time.Millisecond)
	}
	return nil
}
