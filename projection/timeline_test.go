package projection

import (
	"testing"

	"github.com/stretchr/testify/require"

	"httpchat/infrastructure/http/wire"
)

func Test_Timeline_Appends_At_Tail_And_Advances_Watermark(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline("alice@x.com__bob@y.com")
	req.Zero(timeline.Watermark())

	appended := timeline.Apply([]wire.Message{
		{ID: "msg_1", Text: "hi", Timestamp: 100},
		{ID: "msg_2", Text: "hello", Timestamp: 200},
	})
	req.Len(appended, 2)
	req.EqualValues(200, timeline.Watermark())

	appended = timeline.Apply([]wire.Message{{ID: "msg_3", Text: "!", Timestamp: 300}})
	req.Len(appended, 1)
	req.Len(timeline.Messages, 3)
	req.EqualValues(300, timeline.Watermark())
	req.Equal("msg_1", timeline.Messages[0].ID)
	req.Equal("msg_3", timeline.Messages[2].ID)
}

func Test_Timeline_Deduplicates_By_Id_On_Timestamp_Ties(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline("alice@x.com__bob@y.com")

	timeline.Apply([]wire.Message{
		{ID: "msg_1", Text: "tied", Timestamp: 100},
		{ID: "msg_2", Text: "also tied", Timestamp: 100},
	})

	// A delta fetch with since=99 re-delivers both tied messages; the id
	// guard keeps the view duplicate-free.
	appended := timeline.Apply([]wire.Message{
		{ID: "msg_1", Text: "tied", Timestamp: 100},
		{ID: "msg_2", Text: "also tied", Timestamp: 100},
		{ID: "msg_3", Text: "new", Timestamp: 100},
	})
	req.Len(appended, 1)
	req.Equal("msg_3", appended[0].ID)
	req.Len(timeline.Messages, 3)
	req.EqualValues(100, timeline.Watermark())
}

func Test_Timeline_Watermark_Never_Regresses(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline("alice@x.com__bob@y.com")

	timeline.Apply([]wire.Message{{ID: "msg_9", Timestamp: 900}})
	timeline.Apply([]wire.Message{{ID: "msg_4", Timestamp: 400}})
	req.EqualValues(900, timeline.Watermark())
}
