package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVisibleInPipeline(t *testing.T) {
	for _, status := range AllStatuses {
		p := Prospect{Status: status}
		if status == StatusProspect {
			assert.False(t, p.VisibleInPipeline(), "shadow state must stay off the board")
		} else {
			assert.True(t, p.VisibleInPipeline(), "status %s should be visible", status)
		}
	}
}

func TestStatusValid(t *testing.T) {
	for _, status := range AllStatuses {
		assert.True(t, status.Valid())
	}
	assert.False(t, Status("").Valid())
	assert.False(t, Status("signed").Valid())
	assert.False(t, Status("Prospect").Valid())
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "Final Review", StatusFinalReview.Label())
	assert.Equal(t, "Offered", StatusOffered.Label())
	assert.NotEmpty(t, StatusProspect.Label())
}

func TestActivityStatusRank(t *testing.T) {
	assert.Less(t, ActivityNone.Rank(), ActivityViewed.Rank())
	assert.Less(t, ActivityViewed.Rank(), ActivitySubmitted.Rank())

	// Unknown values rank below none so they never win an upgrade check.
	assert.LessOrEqual(t, ActivityStatus("bogus").Rank(), ActivityNone.Rank())
}
