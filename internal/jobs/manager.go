// Package jobs は Asynq による非同期ジョブの投入と処理を提供します。
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// LoginTracker はログイン日時を保存する先です。
type LoginTracker interface {
	TouchLogin(ctx context.Context, userID string, at time.Time) error
}

// Manager はジョブの投入とワーカーの実行を担います。
type Manager struct {
	client  *asynq.Client
	server  *asynq.Server
	mux     *asynq.ServeMux
	tracker LoginTracker
	logger  *zap.Logger
}

// NewManager は Manager を初期化します。
func NewManager(redisURL string, tracker LoginTracker, logger *zap.Logger) (*Manager, error) {
	if tracker == nil {
		return nil, errors.New("tracker is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := asynq.NewClient(opt)
	server := asynq.NewServer(
		opt,
		asynq.Config{
			Concurrency: 2,
			Queues: map[string]int{
				queueName: 1,
			},
			Logger: logger.Named("asynq").Sugar(),
		},
	)

	mux := asynq.NewServeMux()
	manager := &Manager{
		client:  client,
		server:  server,
		mux:     mux,
		tracker: tracker,
		logger:  logger,
	}
	mux.HandleFunc(TaskTypeLoginRecorded, manager.handleLoginRecorded)
	return manager, nil
}

// Run はワーカーを起動し、ctx が終了するまでブロックします。
func (m *Manager) Run(ctx context.Context) error {
	if err := m.server.Start(m.mux); err != nil {
		return fmt.Errorf("start asynq server: %w", err)
	}
	<-ctx.Done()
	m.server.Shutdown()
	return nil
}

// Close はクライアントを閉じます。
func (m *Manager) Close() error {
	return m.client.Close()
}

// RecordLogin は auth.LoginRecorder の実装です。ログイン記録タスクをキューに投入します。
func (m *Manager) RecordLogin(ctx context.Context, userID string, at time.Time) error {
	if userID == "" {
		return fmt.Errorf("userID is required")
	}
	body, err := json.Marshal(&LoginRecordedPayload{UserID: userID, At: at.UTC()})
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypeLoginRecorded, body, asynq.Queue(queueName))
	info, err := m.client.EnqueueContext(ctx, task, asynq.MaxRetry(3))
	if err != nil {
		return err
	}
	m.logger.Debug("login task enqueued", zap.String("task_id", info.ID), zap.String("user_id", userID))
	return nil
}

func (m *Manager) handleLoginRecorded(ctx context.Context, task *asynq.Task) error {
	var payload LoginRecordedPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.UserID == "" {
		return fmt.Errorf("missing userId in payload: %w", asynq.SkipRetry)
	}

	if err := m.tracker.TouchLogin(ctx, payload.UserID, payload.At); err != nil {
		m.logger.Warn("failed to record login",
			zap.String("user_id", payload.UserID),
			zap.Error(err),
		)
		return err
	}
	return nil
}
