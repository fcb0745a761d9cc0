package raffle

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDraw(t *testing.T) {
	d, err := NewDraw(uuid.New(), "req-123", uuid.New())

	require.NoError(t, err)
	assert.Equal(t, DrawStatusRequested, d.Status)
	assert.Equal(t, "req-123", d.RandomnessRequestID)
	assert.Nil(t, d.WinnerTicketNumber)

	_, err = NewDraw(uuid.Nil, "req-123", uuid.New())
	assert.Error(t, err)

	_, err = NewDraw(uuid.New(), "", uuid.New())
	assert.Error(t, err)

	_, err = NewDraw(uuid.New(), "req-123", uuid.Nil)
	assert.Error(t, err)
}

func TestDraw_Complete(t *testing.T) {
	d, err := NewDraw(uuid.New(), "req-123", uuid.New())
	require.NoError(t, err)

	require.NoError(t, d.Complete([]string{"250", "99"}, 51))

	assert.Equal(t, DrawStatusCompleted, d.Status)
	assert.Equal(t, []string{"250", "99"}, d.RandomWords)
	require.NotNil(t, d.WinnerTicketNumber)
	assert.Equal(t, 51, *d.WinnerTicketNumber)

	// Completed draw cannot be completed or failed again
	assert.Error(t, d.Complete([]string{"1"}, 2))
	assert.Error(t, d.Fail("nope"))
}

func TestDraw_CompleteFromPending(t *testing.T) {
	d, err := NewDraw(uuid.New(), "req-123", uuid.New())
	require.NoError(t, err)

	require.NoError(t, d.MarkPending())
	assert.Equal(t, DrawStatusPending, d.Status)

	// Pending cannot go pending again
	assert.Error(t, d.MarkPending())

	require.NoError(t, d.Complete([]string{"7"}, 8))
	assert.Equal(t, DrawStatusCompleted, d.Status)
}

func TestDraw_Complete_RequiresRandomWords(t *testing.T) {
	d, err := NewDraw(uuid.New(), "req-123", uuid.New())
	require.NoError(t, err)

	assert.Error(t, d.Complete(nil, 1))
}

func TestDraw_Fail(t *testing.T) {
	d, err := NewDraw(uuid.New(), "req-123", uuid.New())
	require.NoError(t, err)

	require.NoError(t, d.Fail("winner ticket 51 not found"))

	assert.Equal(t, DrawStatusFailed, d.Status)
	assert.Equal(t, "winner ticket 51 not found", d.FailureReason)
	assert.True(t, d.Status.IsTerminal())

	// Terminal draw cannot fail again
	assert.Error(t, d.Fail("again"))
}
