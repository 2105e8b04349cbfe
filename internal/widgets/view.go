// Package widgets turns cache results into the view models the dashboard
// renders. Every view reports exactly one of the idle, loading, error, empty
// and ready states.
package widgets

import (
	"time"

	"github.com/i474232898/dashboard-data-aggregation/internal/query"
)

// State is what a widget is currently able to show.
type State string

const (
	StateIdle    State = "idle"    // nothing requested yet
	StateLoading State = "loading" // pending with no data to show
	StateError   State = "error"   // the last fetch was rejected
	StateEmpty   State = "empty"   // fulfilled with zero items
	StateReady   State = "ready"
)

// View is embedded in every widget view model.
type View struct {
	State      State            `json:"state"`
	Message    string           `json:"message,omitempty"`
	Error      *query.ErrorInfo `json:"error,omitempty"`
	Refreshing bool             `json:"refreshing,omitempty"`
	UpdatedAt  *time.Time       `json:"updatedAt,omitempty"`
}

// Ready reports whether the view has data to render.
func (v View) Ready() bool {
	return v.State == StateReady
}

type messages struct {
	idle  string
	err   string
	empty string
}

func resolve[T any](r query.TypedResult[T], isEmpty func(T) bool, m messages) View {
	v := View{Refreshing: r.IsFetching && r.HasData}
	if !r.UpdatedAt.IsZero() {
		at := r.UpdatedAt
		v.UpdatedAt = &at
	}

	switch {
	case r.Status == query.StatusIdle:
		v.State, v.Message = StateIdle, m.idle
	case r.Status == query.StatusRejected:
		v.State, v.Message, v.Error = StateError, m.err, r.Err
	case !r.HasData:
		v.State = StateLoading
	case isEmpty != nil && isEmpty(r.Data):
		v.State, v.Message = StateEmpty, m.empty
	default:
		v.State = StateReady
	}
	return v
}
