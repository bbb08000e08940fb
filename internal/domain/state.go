package domain

import (
	"encoding/json"
	"time"
)

// Phase is the tag of a RequestState.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseReady   Phase = "ready"
	PhaseFailed  Phase = "failed"
)

// Terminal reports whether the phase ends a run.
func (p Phase) Terminal() bool {
	return p == PhaseReady || p == PhaseFailed
}

// RequestState is the single observable state of a search session. Use the
// constructors; the zero value is equivalent to IdleState().
type RequestState struct {
	phase     Phase
	query     string
	run       uint64
	forecast  ForecastViewModel
	err       *Error
	updatedAt time.Time
}

// IdleState is the state before the first search.
func IdleState() RequestState {
	return RequestState{phase: PhaseIdle}
}

// LoadingState marks run as in flight for query.
func LoadingState(run uint64, query string, at time.Time) RequestState {
	return RequestState{phase: PhaseLoading, run: run, query: query, updatedAt: at}
}

// ReadyState carries the view model produced by run.
func ReadyState(run uint64, query string, vm ForecastViewModel, at time.Time) RequestState {
	return RequestState{phase: PhaseReady, run: run, query: query, forecast: vm, updatedAt: at}
}

// FailedState carries the error that ended run.
func FailedState(run uint64, query string, err *Error, at time.Time) RequestState {
	return RequestState{phase: PhaseFailed, run: run, query: query, err: err, updatedAt: at}
}

func (s RequestState) Phase() Phase {
	if s.phase == "" {
		return PhaseIdle
	}
	return s.phase
}

func (s RequestState) Query() string        { return s.query }
func (s RequestState) Run() uint64          { return s.run }
func (s RequestState) UpdatedAt() time.Time { return s.updatedAt }

// Forecast returns the view model when the state is ready.
func (s RequestState) Forecast() (ForecastViewModel, bool) {
	if s.phase != PhaseReady {
		return ForecastViewModel{}, false
	}
	return s.forecast, true
}

// Err returns the failure when the state is failed, nil otherwise.
func (s RequestState) Err() *Error {
	if s.phase != PhaseFailed {
		return nil
	}
	return s.err
}

// MarshalJSON exposes the variant with only the payload matching its phase.
func (s RequestState) MarshalJSON() ([]byte, error) {
	type failure struct {
		Kind    ErrorKind `json:"kind"`
		Leg     Leg       `json:"leg,omitempty"`
		Message string    `json:"message"`
	}
	out := struct {
		Phase     Phase              `json:"phase"`
		Query     string             `json:"query,omitempty"`
		Run       uint64             `json:"run"`
		UpdatedAt *time.Time         `json:"updated_at,omitempty"`
		Forecast  *ForecastViewModel `json:"forecast,omitempty"`
		Error     *failure           `json:"error,omitempty"`
	}{
		Phase: s.Phase(),
		Query: s.query,
		Run:   s.run,
	}
	if !s.updatedAt.IsZero() {
		at := s.updatedAt
		out.UpdatedAt = &at
	}
	if vm, ok := s.Forecast(); ok {
		out.Forecast = &vm
	}
	if e := s.Err(); e != nil {
		out.Error = &failure{Kind: e.Kind, Leg: e.Leg, Message: e.Error()}
	}
	return json.Marshal(out)
}
