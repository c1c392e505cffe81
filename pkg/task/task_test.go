package task

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsEmptyPath(t *testing.T) {
	_, err := New(KindList, "")
	require.Error(t, err)
	assert.Equal(t, InvalidArgument, KindOf(err))
}

func TestLifecycle(t *testing.T) {
	tk, err := New(KindUpload, "/tmp/a.txt")
	require.NoError(t, err)
	assert.NotEmpty(t, tk.ID)
	assert.Equal(t, StatusPending, tk.Status())

	require.True(t, tk.Start())
	assert.Equal(t, StatusRunning, tk.Status())
	assert.False(t, tk.Start(), "running task cannot be started twice")

	require.True(t, tk.Finish(Ack(tk.ID, "")))
	assert.Equal(t, StatusSucceeded, tk.Status())
	assert.False(t, tk.Finish(Failure(tk.ID, Errorf(Internal, "late"))), "terminal state is final")
	assert.Equal(t, StatusSucceeded, tk.Status())

	select {
	case <-tk.Done():
	default:
		t.Fatal("done channel not closed")
	}
}

func TestCancelPendingSkipsRunning(t *testing.T) {
	tk, err := New(KindList, "/tmp")
	require.NoError(t, err)

	assert.True(t, tk.Cancel())
	assert.False(t, tk.Cancel(), "cancel is idempotent")
	assert.Equal(t, StatusCancelled, tk.Status())
	assert.True(t, tk.CancelRequested())
	assert.False(t, tk.Start())
	assert.Equal(t, StatusCancelled, tk.Status())
}

func TestCancelRunningOnlyFlags(t *testing.T) {
	tk, err := New(KindUpload, "/tmp/a")
	require.NoError(t, err)
	require.True(t, tk.Start())

	assert.False(t, tk.Cancel())
	assert.Equal(t, StatusRunning, tk.Status())
	assert.True(t, tk.CancelRequested())
	<-tk.Cancelled()

	require.True(t, tk.Finish(Failure(tk.ID, Errorf(Cancelled, "cancelled"))))
	assert.Equal(t, StatusCancelled, tk.Status())
}

func TestAttemptsAndProgress(t *testing.T) {
	tk, err := New(KindUpload, "/tmp/a")
	require.NoError(t, err)
	assert.Equal(t, 1, tk.BeginAttempt())
	assert.Equal(t, 2, tk.BeginAttempt())
	assert.Equal(t, 2, tk.Attempts())

	tk.SetTotal(10)
	tk.AddProgress(4)
	done, total := tk.Progress()
	assert.Equal(t, int64(4), done)
	assert.Equal(t, int64(10), total)
}

func TestErrorKinds(t *testing.T) {
	base := errors.New("connection reset")
	err := fmt.Errorf("upload: %w", Wrap(TransferFailed, "transfer failed", base))

	assert.True(t, errors.Is(err, &Error{Kind: TransferFailed}))
	assert.False(t, errors.Is(err, &Error{Kind: NotFound}))
	assert.True(t, errors.Is(err, base))
	assert.Equal(t, TransferFailed, KindOf(err))
	assert.Equal(t, Internal, KindOf(base))
	assert.Equal(t, "upload: transfer failed: connection reset", err.Error())
}

func TestResultStatus(t *testing.T) {
	assert.Equal(t, StatusSucceeded, FileList("a", nil).Status())
	assert.NotNil(t, FileList("a", nil).Files)
	assert.Equal(t, StatusSucceeded, Ack("a", "ok").Status())
	assert.Equal(t, StatusFailed, Failure("a", Errorf(Timeout, "slow")).Status())
	assert.Equal(t, StatusCancelled, Failure("a", Errorf(Cancelled, "stop")).Status())
}
