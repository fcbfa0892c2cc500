package auth

import (
	"sync"
	"time"
)

const (
	defaultLoginWindow      = 15 * time.Minute
	defaultLockDuration     = 10 * time.Minute
	defaultMaxLoginAttempts = 5
)

type attemptState struct {
	count        int
	firstAttempt time.Time
	lockedUntil  time.Time
}

// Limiter はクライアントIP単位でログイン失敗回数を数え、上限で一定時間ロックします。
type Limiter struct {
	maxAttempts  int
	window       time.Duration
	lockDuration time.Duration
	now          func() time.Time

	lock     sync.Mutex
	attempts map[string]*attemptState
}

// NewLimiter は Limiter を作成します。0 以下の値には既定値を使います。
func NewLimiter(maxAttempts int, lockDuration time.Duration) *Limiter {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxLoginAttempts
	}
	if lockDuration <= 0 {
		lockDuration = defaultLockDuration
	}
	return &Limiter{
		maxAttempts:  maxAttempts,
		window:       defaultLoginWindow,
		lockDuration: lockDuration,
		now:          time.Now,
		attempts:     make(map[string]*attemptState),
	}
}

// RetryAfter はロック中であれば残り時間を返します。ロックされていなければ 0 です。
func (l *Limiter) RetryAfter(ip string) time.Duration {
	l.lock.Lock()
	defer l.lock.Unlock()

	state, ok := l.attempts[ip]
	if !ok {
		return 0
	}
	now := l.now()
	if !now.Before(state.lockedUntil) {
		return 0
	}
	return state.lockedUntil.Sub(now)
}

// RecordFailure は失敗を記録し、残り試行回数を返します。
func (l *Limiter) RecordFailure(ip string) int {
	l.lock.Lock()
	defer l.lock.Unlock()

	now := l.now()
	l.sweep(now)

	state, ok := l.attempts[ip]
	if !ok || now.Sub(state.firstAttempt) > l.window {
		state = &attemptState{firstAttempt: now}
		l.attempts[ip] = state
	}

	state.count++
	if state.count >= l.maxAttempts {
		state.lockedUntil = now.Add(l.lockDuration)
		state.count = l.maxAttempts
	}

	remaining := l.maxAttempts - state.count
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// sweep は集計期間もロックも過ぎた記録を捨てます。l.lock を保持して呼び出します。
func (l *Limiter) sweep(now time.Time) {
	for ip, state := range l.attempts {
		if now.Sub(state.firstAttempt) > l.window && !now.Before(state.lockedUntil) {
			delete(l.attempts, ip)
		}
	}
}

// Reset は成功時に記録を消します。
func (l *Limiter) Reset(ip string) {
	l.lock.Lock()
	defer l.lock.Unlock()
	delete(l.attempts, ip)
}
