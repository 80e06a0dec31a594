package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestSwapStatusCanTransition(t *testing.T) {
	cases := []struct {
		from    SwapStatus
		to      SwapStatus
		allowed bool
	}{
		{SwapPending, SwapAccepted, true},
		{SwapPending, SwapRejected, true},
		{SwapPending, SwapCancelled, true},
		{SwapPending, SwapCompleted, false},
		{SwapAccepted, SwapCompleted, true},
		{SwapAccepted, SwapRejected, false},
		{SwapAccepted, SwapCancelled, false},
		{SwapRejected, SwapAccepted, false},
		{SwapRejected, SwapCompleted, false},
		{SwapCancelled, SwapAccepted, false},
		{SwapCompleted, SwapPending, false},
		{SwapCompleted, SwapAccepted, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransition(tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestSwapStatusTerminal(t *testing.T) {
	assert.False(t, SwapPending.Terminal())
	assert.False(t, SwapAccepted.Terminal())
	assert.True(t, SwapRejected.Terminal())
	assert.True(t, SwapCancelled.Terminal())
	assert.True(t, SwapCompleted.Terminal())
}

func TestSwapRequestParties(t *testing.T) {
	requester := uuid.New()
	recipient := uuid.New()
	stranger := uuid.New()

	swap := &SwapRequest{
		RequestingUserID: requester,
		RequestedUserID:  recipient,
	}

	assert.True(t, swap.Involves(requester))
	assert.True(t, swap.Involves(recipient))
	assert.False(t, swap.Involves(stranger))

	assert.Equal(t, recipient, swap.OtherParty(requester))
	assert.Equal(t, requester, swap.OtherParty(recipient))
}
