package ws

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/Kostikrut/bubbly-back/internal/models"
	logger "github.com/Kostikrut/bubbly-back/middleware/log"
)

// fakeMarker mimics the repository's idempotent bulk update: the first call
// for a pair flips rows, subsequent calls affect zero.
type fakeMarker struct {
	flipped map[[2]uint]bool
	err     error
	calls   int
}

func newFakeMarker() *fakeMarker {
	return &fakeMarker{flipped: make(map[[2]uint]bool)}
}

func (f *fakeMarker) MarkRead(senderID, receiverID uint) (int64, error) {
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	key := [2]uint{senderID, receiverID}
	if f.flipped[key] {
		return 0, nil
	}
	f.flipped[key] = true
	return 3, nil
}

func newTestHub(t *testing.T, marker MessageMarker) *Hub {
	t.Helper()
	log, err := logger.NewDevelopmentLogger()
	require.NoError(t, err)
	if marker == nil {
		marker = newFakeMarker()
	}
	return NewHub(marker, log)
}

func newTestClient() *Client {
	return &Client{send: make(chan []byte, 64)}
}

type recvFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// drain decodes everything queued on the client so far.
func drain(t *testing.T, c *Client) []recvFrame {
	t.Helper()
	var frames []recvFrame
	for {
		select {
		case payload := <-c.send:
			var f recvFrame
			require.NoError(t, json.Unmarshal(payload, &f))
			frames = append(frames, f)
		default:
			return frames
		}
	}
}

// lastRoster returns the ids in the most recent getOnlineUsers frame.
func lastRoster(t *testing.T, c *Client) []uint {
	t.Helper()
	var roster []uint
	found := false
	for _, f := range drain(t, c) {
		if f.Event == EventGetOnlineUsers {
			roster = nil
			require.NoError(t, json.Unmarshal(f.Data, &roster))
			found = true
		}
	}
	require.True(t, found, "no roster frame received")
	return roster
}

func TestHub_RegisterBroadcastsRoster(t *testing.T) {
	h := newTestHub(t, nil)

	a, b := newTestClient(), newTestClient()
	h.Register(1, a)
	h.Register(2, b)

	assert.ElementsMatch(t, []uint{1, 2}, lastRoster(t, a))
	assert.ElementsMatch(t, []uint{1, 2}, lastRoster(t, b))
}

func TestHub_UnregisterRebroadcasts(t *testing.T) {
	h := newTestHub(t, nil)

	a, b := newTestClient(), newTestClient()
	h.Register(1, a)
	h.Register(2, b)
	drain(t, a)

	h.Unregister(2, b)

	assert.ElementsMatch(t, []uint{1}, lastRoster(t, a))
	assert.False(t, h.IsOnline(2))
}

func TestHub_UnregisterAbsentUserIsNoop(t *testing.T) {
	h := newTestHub(t, nil)

	a := newTestClient()
	h.Register(1, a)
	drain(t, a)

	// never registered: must not panic and must not rebroadcast
	h.Unregister(99, newTestClient())
	assert.Empty(t, drain(t, a))
}

func TestHub_StaleConnectionDoesNotEvictReplacement(t *testing.T) {
	h := newTestHub(t, nil)

	old, current := newTestClient(), newTestClient()
	h.Register(1, old)
	h.Register(1, current)

	// the old connection closing late must not remove the live one
	h.Unregister(1, old)
	assert.True(t, h.IsOnline(1))
}

func TestHub_WatcherReceivesRosterButIsNotListed(t *testing.T) {
	h := newTestHub(t, nil)

	visible, hidden := newTestClient(), newTestClient()
	hidden.userID = 2
	h.Register(1, visible)
	h.RegisterWatcher(hidden)

	// the hidden connection sees the roster, the roster does not see it
	assert.ElementsMatch(t, []uint{1}, lastRoster(t, hidden))
	assert.ElementsMatch(t, []uint{1}, lastRoster(t, visible))
	assert.False(t, h.IsOnline(2))
}

func TestHub_WatcherReceivesLaterRosterUpdates(t *testing.T) {
	h := newTestHub(t, nil)

	hidden := newTestClient()
	h.RegisterWatcher(hidden)
	drain(t, hidden)

	a := newTestClient()
	h.Register(1, a)
	assert.ElementsMatch(t, []uint{1}, lastRoster(t, hidden))

	h.Unregister(1, a)
	assert.Empty(t, lastRoster(t, hidden))
}

func TestHub_WatcherIsNotARelayTarget(t *testing.T) {
	h := newTestHub(t, nil)

	hidden := newTestClient()
	hidden.userID = 2
	h.RegisterWatcher(hidden)
	drain(t, hidden)

	h.Relay(EventTyping, 1, 2)
	assert.Empty(t, drain(t, hidden))

	msg := &models.Message{ID: 7, SenderID: 1, ReceiverID: 2, Text: "hello"}
	assert.False(t, h.PushNewMessage(msg))
}

func TestHub_UnregisterWatcherStopsBroadcasts(t *testing.T) {
	h := newTestHub(t, nil)

	hidden := newTestClient()
	h.RegisterWatcher(hidden)
	drain(t, hidden)

	h.UnregisterWatcher(hidden)
	h.Register(1, newTestClient())
	assert.Empty(t, drain(t, hidden))
}

func TestHub_RelayDeliversToConnectedTarget(t *testing.T) {
	h := newTestHub(t, nil)

	b := newTestClient()
	h.Register(2, b)
	drain(t, b)

	h.Relay(EventTyping, 1, 2)

	frames := drain(t, b)
	require.Len(t, frames, 1)
	assert.Equal(t, EventTyping, frames[0].Event)

	var data map[string]uint
	require.NoError(t, json.Unmarshal(frames[0].Data, &data))
	assert.Equal(t, uint(1), data["from_user_id"])
}

func TestHub_RelayToOfflineTargetIsSilent(t *testing.T) {
	h := newTestHub(t, nil)
	// no connections at all: must be a plain no-op
	h.Relay(EventStopTyping, 1, 2)
}

func TestHub_MarkReadNotifiesSender(t *testing.T) {
	marker := newFakeMarker()
	h := newTestHub(t, marker)

	sender := newTestClient()
	h.Register(1, sender)
	drain(t, sender)

	h.MarkRead(1, 2)

	require.Equal(t, 1, marker.calls)
	frames := drain(t, sender)
	require.Len(t, frames, 1)
	assert.Equal(t, EventMessagesRead, frames[0].Event)

	var data map[string]uint
	require.NoError(t, json.Unmarshal(frames[0].Data, &data))
	assert.Equal(t, uint(2), data["by_user_id"])
}

func TestHub_MarkReadIsIdempotent(t *testing.T) {
	marker := newFakeMarker()
	h := newTestHub(t, marker)

	h.MarkRead(1, 2)
	h.MarkRead(1, 2)

	assert.Equal(t, 2, marker.calls)
	assert.Len(t, marker.flipped, 1) // second call flipped nothing new
}

func TestHub_MarkReadStoreFailureIsSwallowed(t *testing.T) {
	marker := newFakeMarker()
	marker.err = errors.New("store down")
	h := newTestHub(t, marker)

	sender := newTestClient()
	h.Register(1, sender)
	drain(t, sender)

	h.MarkRead(1, 2)

	// no notification when the update failed
	assert.Empty(t, drain(t, sender))
}

func TestHub_PushNewMessage(t *testing.T) {
	h := newTestHub(t, nil)

	receiver := newTestClient()
	h.Register(2, receiver)
	drain(t, receiver)

	msg := &models.Message{ID: 7, SenderID: 1, ReceiverID: 2, Text: "hello"}
	assert.True(t, h.PushNewMessage(msg))

	frames := drain(t, receiver)
	require.Len(t, frames, 1)
	assert.Equal(t, EventNewMessage, frames[0].Event)

	var got models.Message
	require.NoError(t, json.Unmarshal(frames[0].Data, &got))
	assert.Equal(t, msg.ID, got.ID)
	assert.Equal(t, "hello", got.Text)
}

func TestHub_PushNewMessageOfflineReceiver(t *testing.T) {
	h := newTestHub(t, nil)

	msg := &models.Message{ID: 7, SenderID: 1, ReceiverID: 2, Text: "hello"}
	assert.False(t, h.PushNewMessage(msg))
}

// TestHub_RosterProperty checks that after any sequence of connects and
// disconnects the roster is exactly the set of still-connected users.
func TestHub_RosterProperty(t *testing.T) {
	log, err := logger.NewDevelopmentLogger()
	require.NoError(t, err)

	rapid.Check(t, func(t *rapid.T) {
		h := NewHub(newFakeMarker(), log)

		connected := make(map[uint]*Client)

		ids := rapid.SliceOfDistinct(rapid.UintRange(1, 50), func(v uint) uint { return v }).Draw(t, "ids")
		for _, id := range ids {
			c := newTestClient()
			h.Register(id, c)
			connected[id] = c
		}

		disconnects := rapid.IntRange(0, len(ids)).Draw(t, "disconnects")
		for _, id := range ids[:disconnects] {
			h.Unregister(id, connected[id])
			delete(connected, id)
		}

		want := make([]uint, 0, len(connected))
		for id := range connected {
			want = append(want, id)
		}

		got := h.OnlineUserIDs()
		if len(got) != len(want) {
			t.Fatalf("roster size %d, want %d", len(got), len(want))
		}
		gotSet := make(map[uint]bool, len(got))
		for _, id := range got {
			gotSet[id] = true
		}
		for _, id := range want {
			if !gotSet[id] {
				t.Fatalf("roster missing user %d", id)
			}
		}
	})
}
