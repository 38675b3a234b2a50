package api

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// InitCallRequest asks the VoIP API to prepare a call towards calleeId.
type InitCallRequest struct {
	Service  string `json:"service"`
	OrderID  string `json:"orderId"`
	CalleeID string `json:"calleeId"`
}

// StidInfo identifies a prepared call on the provider side.
type StidInfo struct {
	Service     string `json:"service"`
	OrderID     string `json:"orderId"`
	UploadToken string `json:"uploadToken"`
	CallID      string `json:"callId"`
}

// InitCallResponse carries the call token and readiness flag.
type InitCallResponse struct {
	Token       string    `json:"token,omitempty"`
	ReadyToCall bool      `json:"readyToCall"`
	StidInfo    *StidInfo `json:"stidInfo,omitempty"`
}

// VoipClient talks to the VoIP call-preparation API.
type VoipClient struct {
	baseURL  string
	deviceID string
	http     *http.Client
}

// NewVoipClient creates a VoIP API client against baseURL. The device id is
// generated once per client and sent with every request.
func NewVoipClient(baseURL string) *VoipClient {
	return &VoipClient{
		baseURL:  baseURL,
		deviceID: strings.ToUpper(uuid.NewString()),
		http:     http.DefaultClient,
	}
}

// InitCall prepares an outgoing call and returns its token. authToken is the
// bearer token of the calling user.
func (c *VoipClient) InitCall(req InitCallRequest, authToken string) (*InitCallResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal init-call request: %w", err)
	}

	httpReq, err := http.NewRequest(http.MethodPost, c.baseURL+"/lm-chat/v1/voip/init-call", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+authToken)
	httpReq.Header.Set("Accept", "*/*")
	httpReq.Header.Set("X-Request-ID", strings.ReplaceAll(uuid.NewString(), "-", ""))
	httpReq.Header.Set("X-Device-ID", c.deviceID)
	httpReq.Header.Set("X-Client-Timestamp", strconv.FormatInt(time.Now().Unix(), 10))

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, string(respBody))
	}

	var out InitCallResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return &out, nil
}

// Stid encodes the call identification for the callee-side verify step.
func Stid(info StidInfo) string {
	data, _ := json.Marshal(info)
	return base64.StdEncoding.EncodeToString(data)
}
