package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		labels Labels
		want   Category
	}{
		{"empty", Labels{}, CategoryInbox},
		{"inbox unread", Labels{LabelInbox, LabelUnread}, CategoryInbox},
		{"sent", Labels{LabelSent}, CategorySent},
		{"starred sent", Labels{LabelStarred, LabelSent}, CategorySent},
		{"draft", Labels{LabelDraft}, CategoryDraft},
		{"spam wins over inbox", Labels{LabelInbox, LabelSpam}, CategorySpam},
		{"trash wins over everything", Labels{LabelSent, LabelSpam, LabelTrash}, CategoryTrash},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.labels))
		})
	}
}

func TestLabels_Apply(t *testing.T) {
	labels := NewLabels(LabelInbox, LabelUnread)

	got := labels.Apply([]string{LabelStarred, LabelInbox}, []string{LabelUnread})

	assert.Equal(t, Labels{LabelInbox, LabelStarred}, got)
	assert.Equal(t, Labels{LabelInbox, LabelUnread}, labels, "receiver must not be mutated")
}

func TestNewLabels_DropsDuplicatesAndEmpties(t *testing.T) {
	assert.Equal(t, Labels{"A", "B"}, NewLabels("A", "", "B", "A"))
}

func TestLabels_StoredAsJSONArray(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&MirroredMessage{}))

	row := &MirroredMessage{UserID: "user-1", ExternalID: "m1"}
	row.SetLabels(Labels{LabelStarred, LabelSent})
	require.NoError(t, db.Create(row).Error)

	var raw string
	require.NoError(t, db.Raw("SELECT labels FROM mirrored_messages WHERE id = ?", row.ID).Scan(&raw).Error)
	assert.Equal(t, `["STARRED","SENT"]`, raw)

	var loaded MirroredMessage
	require.NoError(t, db.First(&loaded, row.ID).Error)
	assert.Equal(t, Labels{LabelStarred, LabelSent}, loaded.Labels)

	loaded.SetLabels(loaded.Labels.Apply([]string{LabelUnread}, []string{LabelStarred}))
	require.NoError(t, db.Model(&loaded).Select("labels").Updates(&loaded).Error)
	require.NoError(t, db.First(&loaded, row.ID).Error)
	assert.Equal(t, Labels{LabelSent, LabelUnread}, loaded.Labels)
}

func TestMirroredMessage_SetLabelsProjectsFlags(t *testing.T) {
	m := &MirroredMessage{}

	m.SetLabels(Labels{LabelUnread, LabelInbox})
	assert.True(t, m.Unread)
	assert.False(t, m.Starred)
	assert.Equal(t, CategoryInbox, m.Category)

	m.SetLabels(Labels{LabelStarred, LabelSent})
	assert.False(t, m.Unread)
	assert.True(t, m.Starred)
	assert.Equal(t, CategorySent, m.Category)
}

func TestParseCategory(t *testing.T) {
	c, ok := ParseCategory("trash")
	assert.True(t, ok)
	assert.Equal(t, CategoryTrash, c)

	_, ok = ParseCategory("archive")
	assert.False(t, ok)
}
