package simulation

import (
	"testing"
	"time"

	"github.com/andresuchdata/demandcast/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitForTerminal(t *testing.T, r *Runner, id string, timeout time.Duration) *JobSnapshot {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		snap, ok := r.Get(id)
		require.True(t, ok)
		switch snap.Status {
		case JobCompleted, JobFailed, JobCancelled:
			return snap
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish within %s", id, timeout)
	return nil
}

func TestRunnerSubmitAndPoll(t *testing.T) {
	start, end := testWindow()
	obs := genObs("A", start.AddDate(0, 0, -90), 100, 5, true)
	engine := newTestEngine(obs, map[string]domain.ItemSettings{"A": defaultSettings("A")})
	runner := NewRunner(engine, time.Hour)

	id, err := runner.Submit(Request{
		ItemIDs:   []string{"A"},
		StartDate: start,
		EndDate:   end,
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	snap := waitForTerminal(t, runner, id, 5*time.Second)
	assert.Equal(t, JobCompleted, snap.Status)
	require.NotNil(t, snap.Result)
	assert.Len(t, snap.Result.Items, 1)
	assert.Equal(t, snap.DaysTotal, snap.DaysDone)
	assert.NotNil(t, snap.CompletedAt)
	assert.Empty(t, snap.Error)
}

func TestRunnerSubmitRejectsInvalidRequest(t *testing.T) {
	engine := newTestEngine(nil, nil)
	runner := NewRunner(engine, time.Hour)

	_, err := runner.Submit(Request{})
	assert.Error(t, err)
}

func TestRunnerGetUnknownJob(t *testing.T) {
	runner := NewRunner(newTestEngine(nil, nil), time.Hour)

	_, ok := runner.Get("missing")
	assert.False(t, ok)
	assert.False(t, runner.Cancel("missing"))
}

func TestRunnerCancel(t *testing.T) {
	start, _ := testWindow()
	obs := genObs("A", start.AddDate(0, 0, -90), 100, 5, true)
	engine := newTestEngine(obs, map[string]domain.ItemSettings{"A": defaultSettings("A")})
	runner := NewRunner(engine, time.Hour)

	// A multi-year window gives cancellation plenty of room to land first.
	id, err := runner.Submit(Request{
		ItemIDs:   []string{"A"},
		StartDate: start,
		EndDate:   start.AddDate(20, 0, 0),
	})
	require.NoError(t, err)
	require.True(t, runner.Cancel(id))

	snap := waitForTerminal(t, runner, id, 5*time.Second)
	assert.Equal(t, JobCancelled, snap.Status)
	assert.Nil(t, snap.Result)
}

func TestRunnerOnCompleteHook(t *testing.T) {
	start, end := testWindow()
	obs := genObs("A", start.AddDate(0, 0, -90), 100, 5, true)
	engine := newTestEngine(obs, map[string]domain.ItemSettings{"A": defaultSettings("A")})
	runner := NewRunner(engine, time.Hour)

	done := make(chan string, 1)
	runner.SetOnComplete(func(jobID string, result *domain.ComparisonResult) {
		if result != nil {
			done <- jobID
		}
	})

	id, err := runner.Submit(Request{
		ItemIDs:   []string{"A"},
		StartDate: start,
		EndDate:   end,
	})
	require.NoError(t, err)

	select {
	case hookID := <-done:
		assert.Equal(t, id, hookID)
	case <-time.After(5 * time.Second):
		t.Fatal("completion hook was not invoked")
	}
}
