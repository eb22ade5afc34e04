package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestBookingPatch(t *testing.T) {
	submitted := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	base := Booking{
		ID:          "b1",
		FullName:    "Ana Li",
		Email:       "a@x.com",
		Status:      StatusPending,
		SubmittedAt: submitted,
	}

	t.Run("ApplyOnlySetFields", func(t *testing.T) {
		b := base.Clone()
		BookingPatch{Status: strPtr(StatusCompleted), Message: strPtr("call back")}.Apply(&b)

		assert.Equal(t, StatusCompleted, b.Status)
		assert.Equal(t, "call back", b.Message)
		assert.Equal(t, "Ana Li", b.FullName)
		assert.Equal(t, "b1", b.ID)
		assert.Equal(t, submitted, b.SubmittedAt)
	})

	t.Run("IdentityFieldsIgnoredOnDecode", func(t *testing.T) {
		var p BookingPatch
		err := json.Unmarshal([]byte(`{"id":"evil","submittedAt":"2000-01-01T00:00:00Z","status":"contacted"}`), &p)
		require.NoError(t, err)
		b := base.Clone()
		p.Apply(&b)
		assert.Equal(t, "b1", b.ID)
		assert.Equal(t, submitted, b.SubmittedAt)
		assert.Equal(t, StatusContacted, b.Status)
	})
}

func TestBookingJSON(t *testing.T) {
	b := Booking{ID: "1", FullName: "Ana", Status: StatusPending, SubmittedAt: time.Now().UTC()}
	raw, err := json.Marshal(b)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Contains(t, m, "_service")
	assert.Contains(t, m, "submittedAt")
	assert.NotContains(t, m, "updatedAt")
	assert.NotContains(t, m, "website")

	b.Touch(time.Now())
	raw, err = json.Marshal(b)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"updatedAt"`)
}

func TestSortBySubmittedDesc(t *testing.T) {
	now := time.Now()
	list := []Booking{
		{ID: "old", SubmittedAt: now.Add(-2 * time.Hour)},
		{ID: "new", SubmittedAt: now},
		{ID: "mid", SubmittedAt: now.Add(-time.Hour)},
	}
	SortBySubmittedDesc(list)
	assert.Equal(t, []string{"new", "mid", "old"}, []string{list[0].ID, list[1].ID, list[2].ID})
}

func TestStatusAndOptions(t *testing.T) {
	for _, s := range Statuses {
		assert.True(t, IsValidStatus(s))
	}
	assert.False(t, IsValidStatus("archived"))
	assert.False(t, IsValidStatus(""))

	assert.Len(t, DefaultOptionGroups(), 4)
	assert.Equal(t, "Web Development", OptionLabel("_service", "web-dev"))
	assert.Equal(t, "unknown", OptionLabel("_service", "unknown"))
}

func TestClone(t *testing.T) {
	b := Booking{ID: "1"}
	b.Touch(time.Now())
	c := b.Clone()
	*c.UpdatedAt = c.UpdatedAt.Add(time.Hour)
	assert.NotEqual(t, *b.UpdatedAt, *c.UpdatedAt)
}
