package domain

// ConversationLine is one utterance of the dialogue attached to a vocabulary word.
// Lines sharing a WordID are played back in ascending LineOrder.
type ConversationLine struct {
	ID           int64
	WordID       int64
	SpeakerLabel string
	LineOrder    int64
	Text         string
}
