package model

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasRoom(t *testing.T) {
	unlimited := Event{ParticipantLimit: 0}
	assert.True(t, unlimited.HasRoom(1000))

	limited := Event{ParticipantLimit: 2}
	assert.True(t, limited.HasRoom(1))
	assert.False(t, limited.HasRoom(2))
	assert.False(t, limited.HasRoom(3))
}

func TestApply(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	assert.Equal(t, []int{1, 2}, Apply(items, Page{From: 0, Size: 2}))
	assert.Equal(t, []int{4, 5}, Apply(items, Page{From: 3, Size: 10}))
	assert.Equal(t, []int{}, Apply(items, Page{From: 5, Size: 10}))
	assert.Equal(t, items, Apply(items, Page{From: 0, Size: 0}))
}

func TestApply_HugeSizeDoesNotOverflow(t *testing.T) {
	items := []int{1, 2, 3}

	assert.Equal(t, []int{2, 3}, Apply(items, Page{From: 1, Size: math.MaxInt}))
	assert.Equal(t, items, Apply(items, Page{From: 0, Size: math.MaxInt}))
}

func TestParseDateTime(t *testing.T) {
	got, err := ParseDateTime("2030-05-17 18:30:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2030, 5, 17, 18, 30, 0, 0, time.UTC), got)
	assert.Equal(t, "2030-05-17 18:30:00", FormatDateTime(got))

	_, err = ParseDateTime("2030-05-17T18:30:00Z")
	assert.Error(t, err)
}

func TestFullCarriesPublicationTime(t *testing.T) {
	created := time.Date(2030, 1, 1, 10, 0, 0, 0, time.UTC)
	e := Event{ID: "e1", State: StatePending, CreatedOn: created, EventDate: created.Add(48 * time.Hour)}

	full := e.Full(2, 7)
	assert.Nil(t, full.PublishedOn)
	assert.Equal(t, 2, full.ConfirmedRequests)
	assert.Equal(t, 7, full.Views)

	published := created.Add(time.Hour)
	e.PublishedOn = &published
	e.State = StatePublished
	full = e.Full(0, 0)
	require.NotNil(t, full.PublishedOn)
	assert.Equal(t, "2030-01-01 11:00:00", *full.PublishedOn)
}

func TestEventStateValid(t *testing.T) {
	assert.True(t, StatePublished.Valid())
	assert.False(t, EventState("DRAFT").Valid())
}
