package event

import "strings"

// Topic is a hierarchical event type using dot notation.
type Topic string

// Wildcard constants for pattern matching.
const (
	// WildcardSingle matches exactly one segment.
	WildcardSingle = "*"

	// WildcardMulti matches zero or more segments.
	WildcardMulti = "**"

	// Separator separates topic segments.
	Separator = "."
)

// Topics published by the host and the engine.
const (
	TopicHostMutation    Topic = "host.mutation"
	TopicFormSubmit      Topic = "form.submit"
	TopicFormSubmitClick Topic = "form.submit.click"
	TopicBufferInput     Topic = "buffer.input"
	TopicBufferChange    Topic = "buffer.change"
	TopicSyncReconciled  Topic = "sync.reconciled"
	TopicSyncFailed      Topic = "sync.failed"
	TopicCheckboxToggled Topic = "checkbox.toggled"
	TopicPreviewEnhanced Topic = "preview.enhanced"
)

// String returns the topic as a string.
func (t Topic) String() string {
	return string(t)
}

// Segments returns the topic split by the separator.
func (t Topic) Segments() []string {
	if t == "" {
		return nil
	}
	return strings.Split(string(t), Separator)
}

// Matches reports whether t matches pattern.
func (t Topic) Matches(pattern Topic) bool {
	return matchSegments(t.Segments(), pattern.Segments())
}

func matchSegments(topic, pattern []string) bool {
	for len(pattern) > 0 {
		switch pattern[0] {
		case WildcardMulti:
			rest := pattern[1:]
			for i := 0; i <= len(topic); i++ {
				if matchSegments(topic[i:], rest) {
					return true
				}
			}
			return false
		case WildcardSingle:
			if len(topic) == 0 {
				return false
			}
		default:
			if len(topic) == 0 || topic[0] != pattern[0] {
				return false
			}
		}
		topic = topic[1:]
		pattern = pattern[1:]
	}
	return len(topic) == 0
}
