// Package chat decodes chat socket frames and holds the small pieces of
// chat-session logic that do not depend on the terminal UI.
package chat

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	apierrors "github.com/saithsab877/hivechat/internal/errors"
	"github.com/saithsab877/hivechat/internal/models"
)

// FrameKind classifies a chat socket frame
type FrameKind int

const (
	FrameIgnored FrameKind = iota
	FrameConnect
	FrameRunStarted
	FrameMessage
	FrameProcess
)

func (k FrameKind) String() string {
	switch k {
	case FrameConnect:
		return "user_connect"
	case FrameRunStarted:
		return "swrun"
	case FrameMessage:
		return "message"
	case FrameProcess:
		return "process"
	default:
		return "ignored"
	}
}

// Discriminant values on the chat socket
const (
	msgUserConnect = "user_connect"
	actionRun      = "swrun"
	actionMessage  = "message"
	actionProcess  = "process"
)

// Frame is one decoded chat socket frame
type Frame struct {
	Kind FrameKind
	// Discriminant is the raw msg/action value, kept for logging.
	Discriminant string
	// SessionID is set for FrameConnect.
	SessionID string
	// ProjectID is set for FrameRunStarted; it may be empty when the
	// frame carries no recognizable project path.
	ProjectID string
	// Message is set for FrameMessage and FrameProcess.
	Message models.ChatMessage
}

var projectPathRe = regexp.MustCompile(`/projects/([^/?#"\s]+)`)

// ExtractProjectID returns the id following "/projects/" in s, or ""
func ExtractProjectID(s string) string {
	m := projectPathRe.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// DecodeFrame decodes a raw chat socket frame. Frames that are valid JSON
// but carry no recognized discriminant are returned with Kind FrameIgnored
// and ok=true so callers can log them. Malformed JSON is a ParseError.
func DecodeFrame(raw []byte) (Frame, bool, error) {
	if !gjson.ValidBytes(raw) {
		return Frame{}, false, apierrors.NewParseError("decode chat frame", string(raw))
	}
	parsed := gjson.ParseBytes(raw)
	if !parsed.IsObject() {
		return Frame{}, false, apierrors.NewParseError("decode chat frame: expected object", string(raw))
	}

	if msg := parsed.Get("msg").String(); msg == msgUserConnect {
		return Frame{
			Kind:         FrameConnect,
			Discriminant: msg,
			SessionID:    parsed.Get("body").String(),
		}, true, nil
	}

	action := parsed.Get("action").String()
	switch action {
	case actionRun:
		return Frame{
			Kind:         FrameRunStarted,
			Discriminant: action,
			ProjectID:    runProjectID(parsed, raw),
		}, true, nil

	case actionMessage, actionProcess:
		cm := parsed.Get("chatMessage")
		if !cm.IsObject() {
			return Frame{Kind: FrameIgnored, Discriminant: action}, true, nil
		}
		var msg models.ChatMessage
		if err := json.Unmarshal([]byte(cm.Raw), &msg); err != nil {
			return Frame{}, false, apierrors.NewParseError("decode chatMessage: "+err.Error(), cm.Raw)
		}
		if msg.ID == "" {
			return Frame{}, false, apierrors.NewParseError("decode chatMessage: missing id", cm.Raw)
		}
		kind := FrameMessage
		if action == actionProcess {
			kind = FrameProcess
		}
		return Frame{Kind: kind, Discriminant: action, Message: msg}, true, nil
	}

	disc := action
	if disc == "" {
		disc = parsed.Get("msg").String()
	}
	return Frame{Kind: FrameIgnored, Discriminant: disc}, true, nil
}

// runProjectID looks for the project path in the usual payload fields
// before falling back to the whole frame.
func runProjectID(parsed gjson.Result, raw []byte) string {
	for _, path := range []string{"message", "webhook", "body", "chatMessage.message"} {
		if v := parsed.Get(path); v.Type == gjson.String {
			if id := ExtractProjectID(v.String()); id != "" {
				return id
			}
		}
	}
	return ExtractProjectID(strings.ReplaceAll(string(raw), `\/`, `/`))
}
