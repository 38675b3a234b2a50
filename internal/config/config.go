package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Defaults. The signaling endpoint is a public echo service used as a
// stand-in; a real deployment must replace it with a signaling server that
// relays messages only within a room.
const (
	defaultSignalURL    = "wss://echo.websocket.org"
	defaultSTUNServers  = "stun:stun.l.google.com:19302,stun:stun1.l.google.com:19302"
	defaultPingInterval = 30 * time.Second
	defaultTokenAPI     = "https://voipnx-as.line-apps.com"
	defaultVoipAPI      = "https://beta-man-chat.wndv.co"
	defaultServiceID    = "line-planet-call"
	defaultRegion       = "jp"
)

// Config holds the application configuration.
type Config struct {
	SignalURL    string
	STUNServers  []string
	PingInterval time.Duration
	TokenAPIBase string
	VoipAPIBase  string
	UserID       string
	ServiceID    string
	Region       string
	APIKey       string

	// VideoOut, when set, is the path of a file receiving the remote H264
	// video stream as Annex-B NAL units.
	VideoOut string
}

// Load reads configuration from a .env file (if present) and environment
// variables. Environment variables take precedence over .env values; every
// key has a working default.
func Load() (*Config, error) {
	// godotenv.Load does not overwrite existing env vars
	_ = godotenv.Load()

	pingInterval := defaultPingInterval
	if v := os.Getenv("PEERCALL_PING_INTERVAL"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs < 0 {
			return nil, fmt.Errorf("PEERCALL_PING_INTERVAL must be a non-negative number of seconds, got %q", v)
		}
		pingInterval = time.Duration(secs) * time.Second
	}

	return &Config{
		SignalURL:    getenv("PEERCALL_SIGNAL_URL", defaultSignalURL),
		STUNServers:  splitList(getenv("PEERCALL_STUN_SERVERS", defaultSTUNServers)),
		PingInterval: pingInterval,
		TokenAPIBase: getenv("PEERCALL_TOKEN_API", defaultTokenAPI),
		VoipAPIBase:  getenv("PEERCALL_VOIP_API", defaultVoipAPI),
		UserID:       os.Getenv("PEERCALL_USER_ID"),
		ServiceID:    getenv("PEERCALL_SERVICE_ID", defaultServiceID),
		Region:       getenv("PEERCALL_REGION", defaultRegion),
		APIKey:       os.Getenv("PEERCALL_API_KEY"),
		VideoOut:     os.Getenv("PEERCALL_VIDEO_OUT"),
	}, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
