package domain

// Signaling message types exchanged over the room channel.
const (
	MessageOffer        = "offer"
	MessageAnswer       = "answer"
	MessageICECandidate = "ice-candidate"
)

// SDPPayload is the JSON structure for SDP offer/answer messages.
type SDPPayload struct {
	Type string `json:"type"`
	SDP  string `json:"sdp"`
}

// ICECandidatePayload is the JSON structure for ICE candidate messages.
type ICECandidatePayload struct {
	Candidate     string `json:"candidate"`
	SDPMid        string `json:"sdpMid"`
	SDPMLineIndex int    `json:"sdpMLineIndex"`
}

// SignalMessage is the wire envelope for all signaling traffic. Exactly one
// of Offer, Answer or Candidate is set, matching Type. Messages whose RoomID
// differs from the local room are dropped without dispatch.
type SignalMessage struct {
	Type      string               `json:"type"`
	RoomID    string               `json:"roomId"`
	Offer     *SDPPayload          `json:"offer,omitempty"`
	Answer    *SDPPayload          `json:"answer,omitempty"`
	Candidate *ICECandidatePayload `json:"candidate,omitempty"`
}
