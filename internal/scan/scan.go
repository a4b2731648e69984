// Package scan turns a scanned attendance payload into a presented code.
// Real image decoding happens elsewhere; this package only interprets the
// decoded text.
package scan

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
)

// ErrUnreadable is returned when a payload carries no usable code.
var ErrUnreadable = errors.New("scan payload is unreadable")

// Claim is the decoded content of a payload. EventID is empty when the
// payload carries a bare code.
type Claim struct {
	EventID string
	Code    string
}

// Decoder resolves a scanned payload into a claim.
type Decoder interface {
	Decode(payload string) (Claim, error)
}

// prefixedPattern matches "VOLUNTEER:{eventID}:{code}".
var prefixedPattern = regexp.MustCompile(`^VOLUNTEER:([^:\s]+):(\S+)$`)

// barePattern matches a short shared code with no framing.
var barePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// TextDecoder understands volunteer://verify?event=E&code=C URLs,
// VOLUNTEER:E:C strings, and bare codes.
type TextDecoder struct{}

var _ Decoder = TextDecoder{}

// Decode implements Decoder.
func (TextDecoder) Decode(payload string) (Claim, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return Claim{}, ErrUnreadable
	}

	if strings.HasPrefix(payload, "volunteer://") {
		return decodeURL(payload)
	}

	if m := prefixedPattern.FindStringSubmatch(payload); m != nil {
		return Claim{EventID: m[1], Code: m[2]}, nil
	}

	if barePattern.MatchString(payload) {
		return Claim{Code: payload}, nil
	}

	return Claim{}, ErrUnreadable
}

func decodeURL(payload string) (Claim, error) {
	u, err := url.Parse(payload)
	if err != nil {
		return Claim{}, ErrUnreadable
	}
	if u.Host != "verify" {
		return Claim{}, ErrUnreadable
	}
	q := u.Query()
	code := q.Get("code")
	if code == "" {
		return Claim{}, ErrUnreadable
	}
	return Claim{EventID: q.Get("event"), Code: code}, nil
}
