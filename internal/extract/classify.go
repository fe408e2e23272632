package extract

import "strings"

// Intent is the heuristic decision of what kind of extraction a text
// block requires.
type Intent string

const (
	// IntentMeeting — the block is (or asks for extraction from) a
	// meeting note, call transcript, or conversation.
	IntentMeeting Intent = "meeting"

	// IntentProfile — the block asks for a person profile/bio to be
	// generated or summarized.
	IntentProfile Intent = "profile"

	// IntentGeneric — anything else; summary and topics still apply.
	IntentGeneric Intent = "generic"
)

var (
	extractVerbs  = []string{"extract", "parse", "analyze", "analyse", "identify", "pull"}
	generateVerbs = []string{"generate", "create", "write", "draft", "compose"}
	meetingNouns  = []string{"meeting", "note", "notes", "conversation", "call", "transcript", "discussion", "standup", "sync"}
	profileNouns  = []string{"profile", "bio", "biography", "background", "introduction"}
)

// Classify decides the likely intent of a text block by keyword
// co-occurrence: an extraction verb together with a meeting noun means
// meeting-note extraction, a generation verb with a profile noun means
// profile generation, anything else is generic.
func Classify(text string) Intent {
	lower := strings.ToLower(text)

	hasAny := func(words []string) bool {
		for _, w := range words {
			if strings.Contains(lower, w) {
				return true
			}
		}
		return false
	}

	switch {
	case hasAny(extractVerbs) && hasAny(meetingNouns):
		return IntentMeeting
	case hasAny(generateVerbs) && hasAny(profileNouns):
		return IntentProfile
	case hasAny(profileNouns) && hasAny(extractVerbs):
		return IntentProfile
	default:
		return IntentGeneric
	}
}
