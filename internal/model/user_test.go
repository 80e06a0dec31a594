package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBeforeCreateAssignsTimeOrderedIDs(t *testing.T) {
	user := &User{}
	require.NoError(t, user.BeforeCreate(nil))
	assert.Equal(t, uuid.Version(7), user.ID.Version())

	category := &Category{}
	require.NoError(t, category.BeforeCreate(nil))
	assert.Equal(t, uuid.Version(7), category.ID.Version())

	analytics := &DailyAnalytics{}
	require.NoError(t, analytics.BeforeCreate(nil))
	assert.Equal(t, uuid.Version(7), analytics.ID.Version())
}

func TestBeforeCreateKeepsAssignedID(t *testing.T) {
	id := uuid.New()
	user := &User{ID: id}
	require.NoError(t, user.BeforeCreate(nil))
	assert.Equal(t, id, user.ID)
}
