package flow

import (
	"encoding/json"
	"fmt"
	"net/url"
)

// State is the transient login-flow state parked in the browser between the
// redirect to the provider and the callback. It carries the anti-CSRF state
// value and the PKCE code verifier.
type State struct {
	State        string `json:"state"`
	CodeVerifier string `json:"code_verifier"`
}

// Encode serializes the flow state for cookie storage.
func (s *State) Encode() (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encode flow state: %w", err)
	}
	return string(data), nil
}

// DecodeState parses a flow state cookie value. Some proxies percent-encode
// the cookie a second time in transit, so a failed parse is retried after
// one more percent-decode.
func DecodeState(raw string) (*State, error) {
	var s State
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		decoded, uerr := url.QueryUnescape(raw)
		if uerr != nil {
			return nil, fmt.Errorf("decode flow state: %w", err)
		}
		if jerr := json.Unmarshal([]byte(decoded), &s); jerr != nil {
			return nil, fmt.Errorf("decode flow state: %w", jerr)
		}
	}
	return &s, nil
}
