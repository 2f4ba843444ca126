package controller

import (
	"fmt"

	"github.com/MrSnakeDoc/kbase/internal/domain"
	"github.com/MrSnakeDoc/kbase/internal/logger"
)

// SignalKind classifies the outcome of a mutation.
type SignalKind string

const (
	KindSuccess SignalKind = "success"
	KindError   SignalKind = "error"
	KindInfo    SignalKind = "info"
)

// Action names the mutation a signal reports on.
type Action string

const (
	ActionAdd    Action = "add"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionImport Action = "import"
)

// Outcome messages shown to the user.
const (
	MsgAdded   = "Entry added successfully!"
	MsgUpdated = "Entry updated successfully!"
	MsgDeleted = "Entry deleted successfully!"
)

// Signal is the user-visible result of a mutation.
type Signal struct {
	Kind     SignalKind `json:"kind"`
	Action   Action     `json:"action"`
	Category string     `json:"category,omitempty"`
	EntryID  string     `json:"entry_id,omitempty"`
	Message  string     `json:"message"`
}

// OutcomeSignal builds the signal reporting action on entry id of cat. A nil
// err yields the success (add, update) or info (delete) signal. Imports span
// every category, so cat is ignored for them.
func OutcomeSignal(action Action, cat domain.Category, id string, err error) Signal {
	s := Signal{Action: action, EntryID: id}
	if cat.Valid() && action != ActionImport {
		s.Category = cat.String()
	}

	if err != nil {
		s.Kind = KindError
		if action == ActionImport {
			s.Message = fmt.Sprintf("Failed to import entries: %v", err)
		} else {
			s.Message = fmt.Sprintf("Failed to %s entry: %v", action, err)
		}
		return s
	}

	switch action {
	case ActionAdd:
		s.Kind, s.Message = KindSuccess, MsgAdded
	case ActionUpdate:
		s.Kind, s.Message = KindSuccess, MsgUpdated
	default:
		s.Kind, s.Message = KindInfo, MsgDeleted
	}
	return s
}

// Observer receives every signal the controller raises.
type Observer interface {
	Notify(Signal)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Signal)

func (f ObserverFunc) Notify(s Signal) { f(s) }

// LogObserver writes signals to log, errors at error level.
func LogObserver(log logger.Logger) Observer {
	return ObserverFunc(func(s Signal) {
		fields := []logger.Field{
			logger.String("action", string(s.Action)),
			logger.String("kind", string(s.Kind)),
			logger.String("message", s.Message),
		}
		if s.Category != "" {
			fields = append(fields, logger.String("category", s.Category))
		}
		if s.EntryID != "" {
			fields = append(fields, logger.String("entry_id", s.EntryID))
		}

		if s.Kind == KindError {
			log.Error("catalog mutation failed", fields...)
			return
		}
		log.Info("catalog mutation", fields...)
	})
}
