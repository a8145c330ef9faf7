// Package model holds the fit state and lazy caches shared by estimators.
package model

import "sync"

// EstimatorState はモデルの学習状態を表す
type EstimatorState int

const (
	// NotFitted はモデルが未学習の状態
	NotFitted EstimatorState = iota
	// Fitted はモデルが学習済みの状態
	Fitted
	// Failed は学習を試みたが係数が得られなかった状態（特異行列など）
	Failed
)

// String returns the state name.
func (s EstimatorState) String() string {
	switch s {
	case Fitted:
		return "fitted"
	case Failed:
		return "failed"
	default:
		return "not_fitted"
	}
}

// BaseEstimator は全てのモデルの基底となる構造体。並行に参照しても安全。
type BaseEstimator struct {
	mu    sync.RWMutex
	state EstimatorState
}

// State returns the current state.
func (e *BaseEstimator) State() EstimatorState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// IsFitted はモデルが学習済みかどうかを返す
func (e *BaseEstimator) IsFitted() bool {
	return e.State() == Fitted
}

// IsFailed reports whether fitting was attempted and failed.
func (e *BaseEstimator) IsFailed() bool {
	return e.State() == Failed
}

// SetFitted はモデルを学習済み状態に設定する
func (e *BaseEstimator) SetFitted() {
	e.set(Fitted)
}

// SetFailed marks the estimator as unfit.
func (e *BaseEstimator) SetFailed() {
	e.set(Failed)
}

// Reset はモデルを初期状態にリセットする
func (e *BaseEstimator) Reset() {
	e.set(NotFitted)
}

func (e *BaseEstimator) set(s EstimatorState) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = s
}
