package webrtc

import (
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	"peercall/native/internal/domain"
	"peercall/native/internal/media"

	"github.com/pion/interceptor"
	pion "github.com/pion/webrtc/v4"
)

// Factory builds one peer connection per call session.
type Factory struct {
	// ICEServers are STUN URLs for address discovery. No TURN: peers behind
	// symmetric NATs may fail to connect.
	ICEServers []string

	// VideoSink, when non-nil, receives Annex-B H264 from the remote video
	// track. Other remote tracks are drained.
	VideoSink io.Writer
}

// trackProvider is satisfied by *media.Stream; fakes without tracks fall
// back to receive-only transceivers.
type trackProvider interface {
	Tracks() []*media.Track
}

// NewPeer implements domain.PeerFactory. Local tracks are attached before
// any offer or answer is generated.
func (f *Factory) NewPeer(stream domain.LocalStream) (domain.Peer, error) {
	m := &pion.MediaEngine{}
	if err := m.RegisterDefaultCodecs(); err != nil {
		return nil, fmt.Errorf("register codecs: %w", err)
	}

	reg := &interceptor.Registry{}
	if err := pion.RegisterDefaultInterceptors(m, reg); err != nil {
		return nil, fmt.Errorf("register interceptors: %w", err)
	}

	api := pion.NewAPI(
		pion.WithMediaEngine(m),
		pion.WithInterceptorRegistry(reg),
	)

	var servers []pion.ICEServer
	for _, u := range f.ICEServers {
		servers = append(servers, pion.ICEServer{URLs: []string{u}})
	}

	pc, err := api.NewPeerConnection(pion.Configuration{ICEServers: servers})
	if err != nil {
		return nil, fmt.Errorf("create peer connection: %w", err)
	}

	p := &Peer{
		pc:            pc,
		videoSink:     f.VideoSink,
		remoteDescSet: make(chan struct{}),
		done:          make(chan struct{}),
	}

	if err := p.attachLocal(stream); err != nil {
		pc.Close()
		return nil, err
	}

	pc.OnICECandidate(p.handleICECandidate)
	pc.OnTrack(p.handleTrack)
	pc.OnConnectionStateChange(p.handleConnectionState)
	pc.OnICEConnectionStateChange(func(state pion.ICEConnectionState) {
		log.Printf("[webrtc] ICE connection state: %s", state)
	})

	return p, nil
}

// Peer wraps a Pion PeerConnection for one call session.
type Peer struct {
	pc        *pion.PeerConnection
	videoSink io.Writer

	remoteDescOnce sync.Once
	remoteDescSet  chan struct{}
	done           chan struct{}
	remoteOnce     sync.Once
	closeOnce      sync.Once

	mu          sync.Mutex
	onCandidate func(domain.ICECandidatePayload)
	onRemote    func(domain.RemoteTrack)
	onState     func(domain.Status)
}

// attachLocal adds every local track to the connection. Streams without
// tracks get receive-only transceivers so offers still carry valid m-lines
// with ICE credentials.
func (p *Peer) attachLocal(stream domain.LocalStream) error {
	tp, ok := stream.(trackProvider)
	if ok {
		tracks := tp.Tracks()
		if len(tracks) > 0 {
			for _, t := range tracks {
				sender, err := p.pc.AddTrack(t.Local())
				if err != nil {
					return fmt.Errorf("add %s track: %w", t.Kind(), err)
				}
				t.Bind(sender)
			}
			return nil
		}
	}

	for _, kind := range []pion.RTPCodecType{pion.RTPCodecTypeVideo, pion.RTPCodecTypeAudio} {
		_, err := p.pc.AddTransceiverFromKind(kind, pion.RTPTransceiverInit{
			Direction: pion.RTPTransceiverDirectionRecvonly,
		})
		if err != nil {
			return fmt.Errorf("add %s transceiver: %w", kind, err)
		}
	}
	return nil
}

// SetOnICECandidate registers the callback for locally gathered candidates.
func (p *Peer) SetOnICECandidate(fn func(domain.ICECandidatePayload)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onCandidate = fn
}

// SetOnRemoteTrack registers the callback for the first remote media arrival.
func (p *Peer) SetOnRemoteTrack(fn func(domain.RemoteTrack)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onRemote = fn
}

// SetOnStateChange registers the callback for mapped connection-state
// transitions.
func (p *Peer) SetOnStateChange(fn func(domain.Status)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onState = fn
}

func (p *Peer) handleICECandidate(c *pion.ICECandidate) {
	if c == nil {
		// End of gathering; not forwarded as a signaling message.
		log.Printf("[webrtc] ICE gathering complete")
		return
	}

	init := c.ToJSON()
	if isLoopback(init.Candidate) {
		log.Printf("[webrtc] filtering loopback ICE candidate")
		return
	}

	payload := domain.ICECandidatePayload{Candidate: init.Candidate}
	if init.SDPMid != nil {
		payload.SDPMid = *init.SDPMid
	}
	if init.SDPMLineIndex != nil {
		payload.SDPMLineIndex = int(*init.SDPMLineIndex)
	}

	p.mu.Lock()
	fn := p.onCandidate
	p.mu.Unlock()
	if fn != nil {
		fn(payload)
	}
}

func (p *Peer) handleTrack(track *pion.TrackRemote, _ *pion.RTPReceiver) {
	codec := track.Codec()
	log.Printf("[webrtc] remote track: kind=%s codec=%s", track.Kind(), codec.MimeType)

	p.remoteOnce.Do(func() {
		p.mu.Lock()
		fn := p.onRemote
		p.mu.Unlock()
		if fn != nil {
			fn(domain.RemoteTrack{
				Kind:     track.Kind().String(),
				StreamID: track.StreamID(),
				Codec:    codec.MimeType,
			})
		}
	})

	if track.Kind() == pion.RTPCodecTypeVideo &&
		p.videoSink != nil &&
		strings.EqualFold(codec.MimeType, pion.MimeTypeH264) {
		go p.sinkVideo(track)
		return
	}
	go drainTrack(track)
}

// sinkVideo writes remote H264 as Annex-B NAL units to the configured sink.
func (p *Peer) sinkVideo(track *pion.TrackRemote) {
	startCode := []byte{0x00, 0x00, 0x00, 0x01}
	var re h264Reassembler

	for {
		pkt, _, err := track.ReadRTP()
		if err != nil {
			log.Printf("[webrtc] video track read: %v", err)
			return
		}
		re.push(pkt.Payload, func(nalu []byte) {
			p.videoSink.Write(startCode)
			p.videoSink.Write(nalu)
		})
	}
}

func drainTrack(track *pion.TrackRemote) {
	buf := make([]byte, 1500)
	for {
		if _, _, err := track.Read(buf); err != nil {
			return
		}
	}
}

func (p *Peer) handleConnectionState(state pion.PeerConnectionState) {
	log.Printf("[webrtc] peer connection state: %s", state)

	var status domain.Status
	switch state {
	case pion.PeerConnectionStateConnected:
		status = domain.StatusConnected
	case pion.PeerConnectionStateFailed, pion.PeerConnectionStateDisconnected:
		status = domain.StatusFailed
	case pion.PeerConnectionStateConnecting:
		status = domain.StatusConnecting
	default:
		return
	}

	p.mu.Lock()
	fn := p.onState
	p.mu.Unlock()
	if fn != nil {
		fn(status)
	}
}

// CreateOffer generates an offer and sets it as the local description. Both
// steps must succeed for the returned description to be valid to send.
func (p *Peer) CreateOffer() (domain.SDPPayload, error) {
	offer, err := p.pc.CreateOffer(nil)
	if err != nil {
		return domain.SDPPayload{}, fmt.Errorf("create offer: %w", err)
	}
	if err := p.pc.SetLocalDescription(offer); err != nil {
		return domain.SDPPayload{}, fmt.Errorf("set local description: %w", err)
	}

	log.Printf("[webrtc] local SDP offer set")
	return domain.SDPPayload{Type: "offer", SDP: offer.SDP}, nil
}

// AcceptOffer applies a remote offer and returns the local answer, already
// set as the local description.
func (p *Peer) AcceptOffer(offer domain.SDPPayload) (domain.SDPPayload, error) {
	desc := pion.SessionDescription{Type: pion.SDPTypeOffer, SDP: offer.SDP}
	if err := p.pc.SetRemoteDescription(desc); err != nil {
		return domain.SDPPayload{}, fmt.Errorf("set remote offer: %w", err)
	}
	p.markRemoteDescSet()

	answer, err := p.pc.CreateAnswer(nil)
	if err != nil {
		return domain.SDPPayload{}, fmt.Errorf("create answer: %w", err)
	}
	if err := p.pc.SetLocalDescription(answer); err != nil {
		return domain.SDPPayload{}, fmt.Errorf("set local answer: %w", err)
	}

	log.Printf("[webrtc] remote offer applied, local answer set")
	return domain.SDPPayload{Type: "answer", SDP: answer.SDP}, nil
}

// AcceptAnswer applies a remote answer. Fails if no local offer was set.
func (p *Peer) AcceptAnswer(answer domain.SDPPayload) error {
	desc := pion.SessionDescription{Type: pion.SDPTypeAnswer, SDP: answer.SDP}
	if err := p.pc.SetRemoteDescription(desc); err != nil {
		return fmt.Errorf("set remote answer: %w", err)
	}

	log.Printf("[webrtc] remote SDP answer set")
	p.markRemoteDescSet()
	return nil
}

func (p *Peer) markRemoteDescSet() {
	p.remoteDescOnce.Do(func() { close(p.remoteDescSet) })
}

// errPeerClosed is returned for candidates still waiting on the remote
// description when the connection is closed.
var errPeerClosed = errors.New("peer connection closed")

// AddRemoteCandidate adds a remote ICE candidate. Candidates that arrive
// before the remote description block until it is set or the peer is closed.
func (p *Peer) AddRemoteCandidate(candidate domain.ICECandidatePayload) error {
	select {
	case <-p.remoteDescSet:
	case <-p.done:
		return errPeerClosed
	}

	mLine := uint16(candidate.SDPMLineIndex)
	init := pion.ICECandidateInit{
		Candidate:     candidate.Candidate,
		SDPMid:        &candidate.SDPMid,
		SDPMLineIndex: &mLine,
	}
	if err := p.pc.AddICECandidate(init); err != nil {
		return fmt.Errorf("add ice candidate: %w", err)
	}

	log.Printf("[webrtc] added remote ICE candidate")
	return nil
}

// Close releases the native connection and unblocks any candidate still
// waiting on the remote description. Idempotent.
func (p *Peer) Close() {
	p.closeOnce.Do(func() {
		close(p.done)
		if err := p.pc.Close(); err != nil {
			log.Printf("[webrtc] close: %v", err)
		}
	})
}

func isLoopback(candidate string) bool {
	return strings.Contains(candidate, "127.0.0.1") || strings.Contains(candidate, "::1 ")
}
