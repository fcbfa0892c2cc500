package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
)

type stubTracker struct {
	calls []LoginRecordedPayload
	err   error
}

func (s *stubTracker) TouchLogin(_ context.Context, userID string, at time.Time) error {
	s.calls = append(s.calls, LoginRecordedPayload{UserID: userID, At: at})
	return s.err
}

func newTestManager(t *testing.T, tracker LoginTracker) *Manager {
	t.Helper()
	mr := miniredis.RunT(t)
	m, err := NewManager("redis://"+mr.Addr()+"/0", tracker, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestNewManagerValidatesInput(t *testing.T) {
	_, err := NewManager("redis://127.0.0.1:6379/0", nil, nil)
	require.Error(t, err)

	_, err = NewManager("://bad", &stubTracker{}, nil)
	require.Error(t, err)
}

func TestHandleLoginRecordedTouchesUser(t *testing.T) {
	tracker := &stubTracker{}
	m := newTestManager(t, tracker)

	at := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	body, err := json.Marshal(LoginRecordedPayload{UserID: "u1", At: at})
	require.NoError(t, err)

	require.NoError(t, m.handleLoginRecorded(context.Background(), asynq.NewTask(TaskTypeLoginRecorded, body)))
	require.Len(t, tracker.calls, 1)
	require.Equal(t, "u1", tracker.calls[0].UserID)
	require.True(t, tracker.calls[0].At.Equal(at))
}

func TestHandleLoginRecordedSkipsRetryOnBadPayload(t *testing.T) {
	tracker := &stubTracker{}
	m := newTestManager(t, tracker)

	err := m.handleLoginRecorded(context.Background(), asynq.NewTask(TaskTypeLoginRecorded, []byte("{")))
	require.ErrorIs(t, err, asynq.SkipRetry)

	err = m.handleLoginRecorded(context.Background(), asynq.NewTask(TaskTypeLoginRecorded, []byte(`{"at":"2024-05-01T00:00:00Z"}`)))
	require.ErrorIs(t, err, asynq.SkipRetry)
	require.Empty(t, tracker.calls)
}

func TestHandleLoginRecordedPropagatesStoreError(t *testing.T) {
	boom := errors.New("redis down")
	m := newTestManager(t, &stubTracker{err: boom})

	body, _ := json.Marshal(LoginRecordedPayload{UserID: "u1", At: time.Now()})
	err := m.handleLoginRecorded(context.Background(), asynq.NewTask(TaskTypeLoginRecorded, body))
	require.ErrorIs(t, err, boom)
}

func TestRecordLoginRequiresUserID(t *testing.T) {
	m := newTestManager(t, &stubTracker{})
	require.Error(t, m.RecordLogin(context.Background(), "", time.Now()))
}
