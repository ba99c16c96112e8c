package dispatch

import (
	"encoding/json"
	"fmt"
)

// FormatPayload builds the sink body for the given format. Unknown formats
// fall back to generic.
func FormatPayload(format string, n Notification) ([]byte, error) {
	switch format {
	case "slack":
		return formatSlack(n)
	default:
		return formatGeneric(n)
	}
}

func formatGeneric(n Notification) ([]byte, error) {
	return json.Marshal(n)
}

func formatSlack(n Notification) ([]byte, error) {
	fields := []any{
		map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Session:* %s", n.Session)},
		map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Suspend:* %s", n.Suspend)},
	}
	if n.Thread != 0 {
		fields = append(fields, map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Thread:* 0x%x", n.Thread)})
	}
	if n.RequestID != 0 {
		fields = append(fields, map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Request:* %d", n.RequestID)})
	}

	payload := map[string]any{
		"blocks": []any{
			map[string]any{
				"type": "header",
				"text": map[string]any{
					"type": "plain_text",
					"text": fmt.Sprintf("jdwptap: %s", n.Kind),
				},
			},
			map[string]any{
				"type": "section",
				"text": map[string]any{
					"type": "mrkdwn",
					"text": n.Summary,
				},
			},
			map[string]any{
				"type":   "section",
				"fields": fields,
			},
		},
	}
	return json.Marshal(payload)
}
