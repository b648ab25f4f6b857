package chat

type SendMessageCommand struct {
	Conversation string
	From         string
	Text         string
}

// ListMessagesCommand selects one of two read modes: a nil Since asks for
// the most recent window of Limit messages, a non-nil Since asks for every
// message strictly newer than the watermark. Since = 0 is a real watermark
// and must not be folded into "absent".
type ListMessagesCommand struct {
	Conversation string
	Since        *int64
	Limit        int
}

type ListConversationsCommand struct {
	From string
}

type SearchMessagesCommand struct {
	Conversation string
	Query        string
	Limit        int
}
