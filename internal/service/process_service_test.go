package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"participa/internal/models"
	"participa/internal/testutil"
)

func TestCloseExpired(t *testing.T) {
	l := setupLedger(t)
	ctx := context.Background()
	now := time.Now()

	expired := l.fx.Process
	_, err := l.db.Exec(`UPDATE processes SET end_date = $1 WHERE id = $2`, now.Add(-time.Hour), expired.ID)
	require.NoError(t, err)

	running := testutil.CreateProcess(t, l.db, l.fx.Organizer.ID, "Library hours", models.ProcessActive)
	_, err = l.db.Exec(`UPDATE processes SET end_date = $1 WHERE id = $2`, now.Add(time.Hour), running.ID)
	require.NoError(t, err)

	openEnded := testutil.CreateProcess(t, l.db, l.fx.Organizer.ID, "Street names", models.ProcessActive)

	draft := testutil.CreateProcess(t, l.db, l.fx.Organizer.ID, "Bike lanes", models.ProcessDraft)
	_, err = l.db.Exec(`UPDATE processes SET end_date = $1 WHERE id = $2`, now.Add(-time.Hour), draft.ID)
	require.NoError(t, err)

	n, err := l.processes.CloseExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	for id, want := range map[uint]models.ProcessStatus{
		expired.ID:   models.ProcessClosed,
		running.ID:   models.ProcessActive,
		openEnded.ID: models.ProcessActive,
		draft.ID:     models.ProcessDraft,
	} {
		p, err := l.processes.List(ctx, &want)
		require.NoError(t, err)
		assert.Condition(t, func() bool {
			for _, got := range p {
				if got.ID == id {
					return true
				}
			}
			return false
		}, "process %d should be %s", id, want)
	}

	n, err = l.processes.CloseExpired(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, n, "already closed processes are left alone")
}
