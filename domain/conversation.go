package domain

import (
	"strings"

	"httpchat/errors"
)

// ConversationSeparator joins the two participant addresses of a
// conversation identifier. Validated addresses never contain it, so the
// identifier always splits back into exactly two halves.
const ConversationSeparator = "__"

// DeriveConversationID maps an unordered pair of participant addresses to
// the canonical conversation identifier. The halves are normalized and
// lexicographically ordered before joining, making the function commutative
// and collision-free over pairs of valid addresses. Pure, no side effects.
func DeriveConversationID(a, b string) (string, error) {
	na := NormalizeAddress(a)
	nb := NormalizeAddress(b)
	if na == "" || nb == "" {
		return "", errors.ErrInvalidAddress
	}
	if na > nb {
		na, nb = nb, na
	}
	return na + ConversationSeparator + nb, nil
}

// OtherParticipant returns the half of conversationID that is not self.
// It does not verify that self actually is a participant: when neither half
// matches, the first half is returned. Identifiers that do not split into
// exactly two halves are passed through unchanged.
func OtherParticipant(conversationID, self string) string {
	parts := strings.Split(conversationID, ConversationSeparator)
	if len(parts) != 2 {
		return conversationID
	}
	if parts[0] == NormalizeAddress(self) {
		return parts[1]
	}
	return parts[0]
}
