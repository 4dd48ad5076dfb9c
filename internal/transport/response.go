package transport

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// EmptyReply is returned when the backend answers with an empty body
const EmptyReply = "Received empty response from server"

// NoResultsReply is returned for an empty result list
const NoResultsReply = "No results found."

// HTMLHint is appended when the backend answers with an HTML page
const HTMLHint = "Received an HTML page instead of an API response. Check the endpoint in your settings."

// ErrHTMLResponse is returned when a success response is an HTML page
var ErrHTMLResponse = errors.New(HTMLHint)

const (
	listPreviewTitles = 5
	listPreviewItems  = 3
)

// replyFields are checked in order for the reply text of a JSON object
var replyFields = []string{"response", "answer", "result", "message", "text"}

// chatReplyFields are checked in order in chat mode
var chatReplyFields = []string{"message", "text"}

// ChatFallbackReply is used in chat mode when the reply carries no text
const ChatFallbackReply = "I received your message."

// ExtractReply turns a raw response body into the text shown to the user.
// It returns an error only for bodies that are clearly not an API response.
func ExtractReply(body []byte) (string, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return EmptyReply, nil
	}

	var payload any
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		if IsHTML(trimmed) {
			return "", ErrHTMLResponse
		}
		return string(trimmed), nil
	}
	return formatPayload(payload), nil
}

// ExtractChatReply reads the reply of a chat-mode backend
func ExtractChatReply(body []byte) (string, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ChatFallbackReply, nil
	}

	var obj map[string]any
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		if IsHTML(trimmed) {
			return "", ErrHTMLResponse
		}
		return string(trimmed), nil
	}
	for _, field := range chatReplyFields {
		if s, ok := obj[field].(string); ok && s != "" {
			return s, nil
		}
	}
	return ChatFallbackReply, nil
}

func formatPayload(payload any) string {
	switch v := payload.(type) {
	case string:
		return v
	case []any:
		return formatList(v)
	case map[string]any:
		return formatObject(v)
	case nil:
		return EmptyReply
	default:
		return prettyJSON(v)
	}
}

func formatObject(obj map[string]any) string {
	for _, field := range replyFields {
		value, ok := obj[field]
		if !ok || !truthy(value) {
			continue
		}
		if s, ok := value.(string); ok {
			return s
		}
		return formatPayload(value)
	}

	if title, ok := obj["title"].(string); ok && title != "" {
		if completed, ok := obj["completed"].(bool); ok {
			status := "⏳ Pending"
			if completed {
				status = "✅ Completed"
			}
			var b strings.Builder
			fmt.Fprintf(&b, "📝 **%s**\n\nStatus: %s", title, status)
			if id, ok := obj["id"]; ok {
				fmt.Fprintf(&b, "\nID: %s", scalar(id))
			}
			if userID, ok := obj["userId"]; ok {
				fmt.Fprintf(&b, "\nUser ID: %s", scalar(userID))
			}
			return b.String()
		}
		if body, ok := obj["body"].(string); ok && body != "" {
			var b strings.Builder
			fmt.Fprintf(&b, "📝 **%s**\n\n%s", title, body)
			if id, ok := obj["id"]; ok {
				fmt.Fprintf(&b, "\n\nID: %s", scalar(id))
			}
			return b.String()
		}
	}

	return prettyJSON(obj)
}

// truthy reports whether a reply field carries a usable value; empty
// strings, zero, false and null fall through to the next field
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case float64:
		return t != 0
	default:
		return true
	}
}

func formatList(items []any) string {
	if len(items) == 0 {
		return NoResultsReply
	}

	titles := make([]string, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			break
		}
		title, ok := obj["title"].(string)
		if !ok {
			break
		}
		titles = append(titles, title)
	}

	if len(titles) == len(items) {
		var b strings.Builder
		fmt.Fprintf(&b, "Found %d items:\n", len(items))
		for i, title := range titles {
			if i == listPreviewTitles {
				break
			}
			fmt.Fprintf(&b, "\n%d. %s", i+1, title)
		}
		if len(items) > listPreviewTitles {
			fmt.Fprintf(&b, "\n\n... and %d more", len(items)-listPreviewTitles)
		}
		return b.String()
	}

	shown := items
	if len(shown) > listPreviewItems {
		shown = shown[:listPreviewItems]
	}
	return prettyJSON(shown)
}

func scalar(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	default:
		return fmt.Sprint(t)
	}
}

func prettyJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

// IsHTML reports whether body looks like an HTML document
func IsHTML(body []byte) bool {
	head := strings.ToLower(string(bytes.TrimSpace(body)))
	if len(head) > 512 {
		head = head[:512]
	}
	return strings.HasPrefix(head, "<!doctype html") ||
		strings.HasPrefix(head, "<html") ||
		strings.Contains(head, "<head>") ||
		strings.Contains(head, "<body")
}

// ErrorMessage extracts a human readable message from an error response body
func ErrorMessage(status int, body []byte) string {
	trimmed := bytes.TrimSpace(body)

	var obj map[string]any
	if err := json.Unmarshal(trimmed, &obj); err == nil {
		for _, field := range []string{"detail", "message", "error"} {
			if s, ok := obj[field].(string); ok && s != "" {
				return s
			}
		}
	}

	if len(trimmed) > 0 {
		if IsHTML(trimmed) {
			return fmt.Sprintf("Server error: %d. %s", status, HTMLHint)
		}
		if obj == nil {
			return string(trimmed)
		}
	}
	return fmt.Sprintf("Server error: %d", status)
}
