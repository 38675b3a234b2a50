package main

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	ossignal "os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"peercall/native/internal/api"
	"peercall/native/internal/call"
	"peercall/native/internal/config"
	"peercall/native/internal/domain"
	"peercall/native/internal/media"
	sigclient "peercall/native/internal/signal"
	"peercall/native/internal/webrtc"
)

const helpText = `peercall - 1:1 peer-to-peer video calling demo

Both participants run peercall with the same signaling endpoint and enter
the same room id; offer/answer/ICE exchange and the call itself follow.

Usage:
  peercall [options]

Commands (read from stdin):
  gen              generate and print a new room id
  start <room>     start a call in the given room
  video            toggle the local camera
  audio            toggle the local microphone
  status           print connection status
  end              end the current call
  provision        register the user and fetch a provider access token
  invite <callee>  prepare a provider call towards callee
  quit             end the call and exit

Environment Variables (all optional):
  PEERCALL_SIGNAL_URL     signaling WebSocket endpoint
  PEERCALL_STUN_SERVERS   comma-separated STUN URLs
  PEERCALL_PING_INTERVAL  signaling keepalive in seconds
  PEERCALL_VIDEO_OUT      file receiving remote H264 video (Annex-B)
  PEERCALL_TOKEN_API      token registration API base URL
  PEERCALL_VOIP_API       VoIP call-preparation API base URL
  PEERCALL_USER_ID        user id registered with 'provision'
  PEERCALL_SERVICE_ID     provider service id
  PEERCALL_REGION         provider region
  PEERCALL_API_KEY        provider API key for registration

Options:
  -h, --help  Show this help message
`

// logNotifier is the CLI's notification surface: what the web UI shows as
// toasts goes to the log.
type logNotifier struct{}

func (logNotifier) Notify(title, detail string) {
	log.Printf("[notify] %s: %s", title, detail)
}

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "-h" || os.Args[1] == "--help") {
		fmt.Print(helpText)
		os.Exit(0)
	}

	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ltime | log.Lmicroseconds)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[main] %v", err)
	}

	var videoSink io.Writer
	if cfg.VideoOut != "" {
		f, err := os.Create(cfg.VideoOut)
		if err != nil {
			log.Fatalf("[main] open video out: %v", err)
		}
		defer f.Close()
		videoSink = f
		log.Printf("[main] remote video will be written to %s", cfg.VideoOut)
	}

	session := call.NewSession(
		media.NewSource(),
		&webrtc.Factory{ICEServers: cfg.STUNServers, VideoSink: videoSink},
		&sigclient.Factory{Endpoint: cfg.SignalURL, PingInterval: cfg.PingInterval},
		logNotifier{},
	)

	tokens := api.NewTokenClient(cfg.TokenAPIBase)
	voip := api.NewVoipClient(cfg.VoipAPIBase)
	var accessToken string

	sigCh := make(chan os.Signal, 1)
	ossignal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("[main] received %s, shutting down", sig)
		session.EndCall()
		os.Exit(0)
	}()

	fmt.Println("peercall ready. Type 'gen' for a room id, 'start <room>' to call, 'quit' to exit.")

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		cmd, arg, _ := strings.Cut(line, " ")

		switch strings.ToLower(cmd) {
		case "gen":
			fmt.Println(domain.GenerateRoomID())

		case "start":
			if err := session.StartCall(arg); err != nil {
				log.Printf("[main] start call: %v", err)
				continue
			}
			fmt.Printf("calling in room %s\n", session.RoomID())

		case "video":
			fmt.Printf("video enabled: %t\n", session.ToggleVideo())

		case "audio":
			fmt.Printf("audio enabled: %t\n", session.ToggleAudio())

		case "status":
			participants := 1
			if session.RemotePresent() {
				participants = 2
			}
			fmt.Printf("status=%s room=%s participants=%d\n",
				session.Status(), session.RoomID(), participants)

		case "provision":
			if cfg.UserID == "" {
				fmt.Println("set PEERCALL_USER_ID to provision")
				continue
			}
			token, err := tokens.RegisterUser(api.TokenRequest{
				UserID:    cfg.UserID,
				ServiceID: cfg.ServiceID,
				Region:    cfg.Region,
				APIKey:    cfg.APIKey,
			})
			if err != nil {
				log.Printf("[main] provision: %v", err)
				continue
			}
			accessToken = token
			if exp, err := api.TokenExpiration(token); err == nil {
				fmt.Printf("provisioned %s, token valid until %s\n", cfg.UserID, exp.Format(time.RFC3339))
			} else {
				fmt.Printf("provisioned %s\n", cfg.UserID)
			}

		case "invite":
			callee, order, _ := strings.Cut(arg, " ")
			if callee == "" {
				fmt.Println("usage: invite <callee> [order-id]")
				continue
			}
			if accessToken == "" || api.IsTokenExpired(accessToken) {
				fmt.Println("no valid access token, run 'provision' first")
				continue
			}
			if order == "" {
				order = uuid.NewString()
			}
			resp, err := voip.InitCall(api.InitCallRequest{
				Service:  cfg.ServiceID,
				OrderID:  order,
				CalleeID: callee,
			}, accessToken)
			if err != nil {
				log.Printf("[main] invite: %v", err)
				continue
			}
			fmt.Printf("invite prepared: order=%s readyToCall=%t\n", order, resp.ReadyToCall)
			if resp.StidInfo != nil {
				fmt.Printf("stid: %s\n", api.Stid(*resp.StidInfo))
			}

		case "end":
			session.EndCall()

		case "quit", "exit":
			session.EndCall()
			log.Printf("[main] done")
			return

		default:
			fmt.Printf("unknown command %q\n", cmd)
		}
	}

	session.EndCall()
	if err := scanner.Err(); err != nil {
		log.Fatalf("[main] read stdin: %v", err)
	}
}
