package repositories

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Kostikrut/bubbly-back/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Message{}))
	return db
}

func seedMessage(t *testing.T, db *gorm.DB, senderID, receiverID uint, text string, isRead bool) *models.Message {
	t.Helper()
	msg := &models.Message{SenderID: senderID, ReceiverID: receiverID, Text: text, IsRead: isRead}
	require.NoError(t, db.Create(msg).Error)
	return msg
}

func TestMessageRepository_MarkReadIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	repo := NewMessageRepository(db)

	seedMessage(t, db, 1, 2, "first", false)
	seedMessage(t, db, 1, 2, "second", false)
	seedMessage(t, db, 1, 2, "already read", true)

	affected, err := repo.MarkRead(1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)

	// second call finds nothing left to flip
	affected, err = repo.MarkRead(1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)

	var unread int64
	require.NoError(t, db.Model(&models.Message{}).
		Where("sender_id = ? AND receiver_id = ? AND is_read = ?", 1, 2, false).
		Count(&unread).Error)
	assert.Equal(t, int64(0), unread)
}

func TestMessageRepository_MarkReadLeavesReverseDirectionUnread(t *testing.T) {
	db := newTestDB(t)
	repo := NewMessageRepository(db)

	seedMessage(t, db, 1, 2, "to receiver", false)
	reply := seedMessage(t, db, 2, 1, "reply", false)

	affected, err := repo.MarkRead(1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	var got models.Message
	require.NoError(t, db.First(&got, reply.ID).Error)
	assert.False(t, got.IsRead)
}

func TestMessageRepository_MarkReadScopesToPair(t *testing.T) {
	db := newTestDB(t)
	repo := NewMessageRepository(db)

	seedMessage(t, db, 1, 2, "from one", false)
	other := seedMessage(t, db, 3, 2, "from another", false)

	affected, err := repo.MarkRead(1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	var got models.Message
	require.NoError(t, db.First(&got, other.ID).Error)
	assert.False(t, got.IsRead)
}

func TestMessageRepository_FindBetweenReturnsBothDirectionsAscending(t *testing.T) {
	db := newTestDB(t)
	repo := NewMessageRepository(db)

	base := time.Now().Add(-time.Hour)
	for i, m := range []*models.Message{
		{SenderID: 1, ReceiverID: 2, Text: "hi"},
		{SenderID: 2, ReceiverID: 1, Text: "hey"},
		{SenderID: 1, ReceiverID: 2, Text: "how are you"},
		{SenderID: 1, ReceiverID: 3, Text: "unrelated thread"},
	} {
		m.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, db.Create(m).Error)
	}

	messages, err := repo.FindBetween(1, 2)
	require.NoError(t, err)
	require.Len(t, messages, 3)

	assert.Equal(t, "hi", messages[0].Text)
	assert.Equal(t, "hey", messages[1].Text)
	assert.Equal(t, "how are you", messages[2].Text)
}

func TestMessageRepository_DeleteConversationOnlyForMe(t *testing.T) {
	db := newTestDB(t)
	repo := NewMessageRepository(db)

	seedMessage(t, db, 1, 2, "mine", false)
	seedMessage(t, db, 2, 1, "theirs", false)

	affected, err := repo.DeleteConversation(1, 2, true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	var remaining []models.Message
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, "theirs", remaining[0].Text)
}
