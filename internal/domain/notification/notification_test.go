package notification

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	recipient := uuid.New()

	n, err := New(Input{RecipientID: recipient, Type: TypeFollow, Title: " alice followed you ", Body: strings.Repeat("b", 1200)})
	require.NoError(t, err)
	assert.Equal(t, "alice followed you", n.Title)
	assert.Len(t, n.Body, 1000)
	assert.False(t, n.IsRead())

	first := time.Now()
	n.MarkRead(first)
	n.MarkRead(first.Add(time.Hour))
	assert.Equal(t, first, *n.ReadAt)

	_, err = New(Input{RecipientID: recipient, Type: "poke", Title: "x"})
	assert.Error(t, err)
	_, err = New(Input{RecipientID: uuid.Nil, Type: TypeSystem, Title: "x"})
	assert.Error(t, err)
	_, err = New(Input{RecipientID: recipient, Type: TypeSystem})
	assert.Error(t, err)
}
