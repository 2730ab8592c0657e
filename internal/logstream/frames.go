package logstream

import (
	"encoding/json"

	"github.com/tidwall/gjson"

	apierrors "github.com/saithsab877/hivechat/internal/errors"
	"github.com/saithsab877/hivechat/internal/models"
)

// ChannelName is the ActionCable channel carrying job logs
const ChannelName = "ProjectLogChannel"

// Frame is one log line from the job-log channel
type Frame struct {
	Kind    string
	Message string
}

// SubscribeFrame returns the ActionCable subscribe command for a project.
// The identifier is itself a JSON-encoded string.
func SubscribeFrame(projectID string) []byte {
	identifier, _ := json.Marshal(struct {
		Channel string `json:"channel"`
		ID      string `json:"id"`
	}{ChannelName, projectID})

	frame, _ := json.Marshal(struct {
		Command    string `json:"command"`
		Identifier string `json:"identifier"`
	}{"subscribe", string(identifier)})
	return frame
}

// DecodeFrame keeps step-start and step-complete frames and drops pings,
// welcome and subscription confirmations. Step frames carry the kind and
// text under "message".
func DecodeFrame(raw []byte) (Frame, bool, error) {
	if !gjson.ValidBytes(raw) {
		return Frame{}, false, apierrors.NewParseError("decode log frame", string(raw))
	}
	parsed := gjson.ParseBytes(raw)

	switch parsed.Get("type").String() {
	case "ping", "welcome", "confirm_subscription", "reject_subscription", "disconnect":
		return Frame{}, false, nil
	}

	msg := parsed.Get("message")
	kind := msg.Get("type").String()
	if kind != models.LogStepStart && kind != models.LogStepComplete {
		return Frame{}, false, nil
	}

	return Frame{Kind: kind, Message: msg.Get("message").String()}, true, nil
}
