package domain

import (
	"testing"

	"github.com/stretchr/testify/require"

	"httpchat/errors"
)

func Test_Derive_Conversation_Id_Is_Commutative(t *testing.T) {
	req := require.New(t)

	first, err := DeriveConversationID("Alice@X.com", "bob@y.com")
	req.NoError(err)
	second, err := DeriveConversationID("bob@Y.com ", "alice@x.com")
	req.NoError(err)

	req.Equal("alice@x.com__bob@y.com", first)
	req.Equal(first, second)
}

func Test_Derive_Conversation_Id_Distinct_Pairs_Never_Collide(t *testing.T) {
	req := require.New(t)

	pairs := [][2]string{
		{"alice@x.com", "bob@y.com"},
		{"alice@x.com", "carol@z.com"},
		{"bob@y.com", "carol@z.com"},
		{"dave@x.com", "eve@y.com"},
	}

	seen := make(map[string][2]string)
	for _, pair := range pairs {
		id, err := DeriveConversationID(pair[0], pair[1])
		req.NoError(err)
		previous, exists := seen[id]
		req.False(exists, "pairs %v and %v collided on %q", previous, pair, id)
		seen[id] = pair
	}
}

func Test_Derive_Conversation_Id_Rejects_Empty_Halves(t *testing.T) {
	req := require.New(t)

	_, err := DeriveConversationID("  ", "bob@y.com")
	req.ErrorIs(err, errors.ErrInvalidAddress)
	_, err = DeriveConversationID("alice@x.com", "")
	req.ErrorIs(err, errors.ErrInvalidAddress)
}

func Test_Other_Participant_Round_Trip(t *testing.T) {
	req := require.New(t)

	id, err := DeriveConversationID("alice@x.com", "Bob@Y.com")
	req.NoError(err)

	req.Equal("bob@y.com", OtherParticipant(id, "alice@x.com"))
	req.Equal("alice@x.com", OtherParticipant(id, "Bob@Y.com"))
}

func Test_Other_Participant_Is_Identity_Agnostic(t *testing.T) {
	req := require.New(t)

	id, err := DeriveConversationID("alice@x.com", "bob@y.com")
	req.NoError(err)

	// The caller is not verified to be a participant: an unknown self
	// falls back to the first half.
	req.Equal("alice@x.com", OtherParticipant(id, "mallory@e.com"))
}

func Test_Other_Participant_Passes_Malformed_Ids_Through(t *testing.T) {
	req := require.New(t)

	req.Equal("not-a-conversation", OtherParticipant("not-a-conversation", "alice@x.com"))
	req.Equal("a__b__c", OtherParticipant("a__b__c", "alice@x.com"))
}
