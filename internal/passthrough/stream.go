package passthrough

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// NormalizeStream copies an upstream SSE body to w, rewriting bare
// `event: error` frames to carry a `type` discriminator and converting a
// `[DONE]` terminator into a `message_stop` event, per §4.5. Every other
// line is forwarded unchanged. If the upstream closes without a `[DONE]`
// terminator (e.g. immediately after an error frame), a `message_stop` is
// still synthesized at EOF so every stream ends the same way for clients.
func NormalizeStream(w io.Writer, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var pendingEvent string
	var stopEmitted bool
	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case strings.HasPrefix(line, "event:"):
			pendingEvent = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			if _, err := fmt.Fprintf(w, "%s\n", line); err != nil {
				return err
			}
			continue

		case strings.HasPrefix(line, "data:"):
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if data == "[DONE]" {
				if _, err := io.WriteString(w, "event: message_stop\ndata: {\"type\":\"message_stop\"}\n\n"); err != nil {
					return err
				}
				stopEmitted = true
				pendingEvent = ""
				continue
			}
			if pendingEvent == "error" && !hasTypeDiscriminator(data) {
				rewritten := wrapErrorData(data)
				if _, err := fmt.Fprintf(w, "data: %s\n", rewritten); err != nil {
					return err
				}
				continue
			}
			if _, err := fmt.Fprintf(w, "%s\n", line); err != nil {
				return err
			}

		default:
			if _, err := fmt.Fprintf(w, "%s\n", line); err != nil {
				return err
			}
			if line == "" {
				pendingEvent = ""
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if !stopEmitted {
		if _, err := io.WriteString(w, "event: message_stop\ndata: {\"type\":\"message_stop\"}\n\n"); err != nil {
			return err
		}
	}
	return nil
}

func hasTypeDiscriminator(data string) bool {
	var doc map[string]json.RawMessage
	if json.Unmarshal([]byte(data), &doc) != nil {
		return false
	}
	_, ok := doc["type"]
	return ok
}

// wrapErrorData rewrites a bare error payload into
// {"type":"error","error":{...}}. If data isn't valid JSON it is wrapped as
// a message string so the client still receives a typed error shape.
func wrapErrorData(data string) string {
	var inner any
	if json.Unmarshal([]byte(data), &inner) != nil {
		inner = map[string]any{"message": data}
	}
	out, err := json.Marshal(map[string]any{
		"type":  "error",
		"error": inner,
	})
	if err != nil {
		return data
	}
	return string(out)
}
