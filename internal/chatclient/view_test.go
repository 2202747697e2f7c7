package chatclient

import (
	"testing"
	"time"

	"groupchat/internal/app/message"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func msg(id uint64, content string, updated time.Duration) message.Message {
	return message.Message{ID: id, Content: content, CreatedAt: t0, UpdatedAt: t0.Add(updated)}
}

func classified(m message.Message, status message.Status) message.ClassifiedMessage {
	return message.ClassifiedMessage{Message: m, Status: status}
}

func contents(v *View) []string {
	var out []string
	for _, m := range v.Messages() {
		out = append(out, m.Content)
	}
	return out
}

func TestViewApply(t *testing.T) {
	a, b, c := msg(1, "a", 0), msg(2, "b", 0), msg(3, "c", 0)

	v := NewView()
	v.Replace([]*message.Message{&a, &b})

	batch := []message.ClassifiedMessage{
		classified(c, message.StatusNew),
		classified(msg(1, "a2", time.Second), message.StatusUpdated),
		classified(b, message.StatusDeleted),
	}
	assert.True(t, v.Apply(batch))
	assert.Equal(t, []string{"a2", "c"}, contents(v))

	// Same batch again changes nothing.
	assert.False(t, v.Apply(batch))
	assert.Equal(t, []string{"a2", "c"}, contents(v))
}

func TestViewUpdateKeepsPosition(t *testing.T) {
	a, b, c := msg(1, "a", 0), msg(2, "b", 0), msg(3, "c", 0)
	v := NewView()
	v.Replace([]*message.Message{&a, &b, &c})

	v.Apply([]message.ClassifiedMessage{classified(msg(2, "b2", time.Second), message.StatusUpdated)})
	assert.Equal(t, []string{"a", "b2", "c"}, contents(v))
}

func TestViewIgnoresUnknownIDs(t *testing.T) {
	a := msg(1, "a", 0)
	v := NewView()
	v.Replace([]*message.Message{&a})

	changed := v.Apply([]message.ClassifiedMessage{
		classified(msg(9, "ghost", 0), message.StatusDeleted),
		classified(msg(8, "edited elsewhere", time.Second), message.StatusUpdated),
	})
	assert.False(t, changed)
	assert.Equal(t, []string{"a"}, contents(v))
}

func TestViewNewForDisplayedIDIsNoop(t *testing.T) {
	a := msg(1, "a", 0)
	v := NewView()
	v.Replace([]*message.Message{&a})

	assert.False(t, v.Apply([]message.ClassifiedMessage{classified(msg(1, "dupe", 0), message.StatusNew)}))
	got, ok := v.Get(1)
	require.True(t, ok)
	assert.Equal(t, "a", got.Content)
}

func TestViewReplaceResets(t *testing.T) {
	a, b := msg(1, "a", 0), msg(2, "b", 0)
	v := NewView()
	v.Replace([]*message.Message{&a, &b})
	v.Replace([]*message.Message{&b})

	assert.Equal(t, 1, v.Len())
	_, ok := v.Get(1)
	assert.False(t, ok)
}
