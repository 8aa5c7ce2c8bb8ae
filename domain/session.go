package domain

import "time"

// SessionStatus is the lifecycle state of a training session.
type SessionStatus string

const (
	SessionScheduled  SessionStatus = "scheduled"
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
	SessionCancelled  SessionStatus = "cancelled"
)

var sessionTransitions = map[SessionStatus][]SessionStatus{
	SessionScheduled:  {SessionInProgress, SessionCancelled},
	SessionInProgress: {SessionCompleted, SessionCancelled},
}

func (s SessionStatus) Valid() bool {
	switch s {
	case SessionScheduled, SessionInProgress, SessionCompleted, SessionCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s SessionStatus) Terminal() bool {
	return s == SessionCompleted || s == SessionCancelled
}

// CanTransitionTo reports whether next is reachable from s in one step.
func (s SessionStatus) CanTransitionTo(next SessionStatus) bool {
	for _, allowed := range sessionTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Session is a scheduled one or two person training slot.
type Session struct {
	ID           uint          `json:"id"`
	SessionID    string        `json:"sessionId"`
	PersonCount  int           `json:"personCount"`
	StartingTime string        `json:"startingTime"`
	EndTime      string        `json:"endTime,omitempty"`
	Date         string        `json:"date"`
	Users        []uint        `json:"users"`
	Status       SessionStatus `json:"status"`
	TrainerID    *uint         `json:"trainerId,omitempty"`
	Notes        string        `json:"notes,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// ValidCapacity reports whether n is an allowed participant capacity.
func ValidCapacity(n int) bool { return n == 1 || n == 2 }

func (s *Session) HasParticipant(userID uint) bool {
	for _, id := range s.Users {
		if id == userID {
			return true
		}
	}
	return false
}

// AddParticipant appends userID. Adding a current participant is a no-op,
// even when the session is full.
func (s *Session) AddParticipant(userID uint) error {
	if s.HasParticipant(userID) {
		return nil
	}
	if len(s.Users) >= s.PersonCount {
		return ErrSessionFull.WithMessagef("Session is full. Maximum %d person(s) allowed.", s.PersonCount)
	}
	s.Users = append(s.Users, userID)
	return nil
}

// RemoveParticipant drops userID and reports whether it was present.
func (s *Session) RemoveParticipant(userID uint) bool {
	for i, id := range s.Users {
		if id == userID {
			s.Users = append(s.Users[:i], s.Users[i+1:]...)
			return true
		}
	}
	return false
}

// SetCapacity changes PersonCount without dropping below the participant count.
func (s *Session) SetCapacity(n int) error {
	if !ValidCapacity(n) {
		return ErrInvalidCapacity
	}
	if n < len(s.Users) {
		return ErrCapacityBelowParticipants.WithMessagef(
			"Cannot reduce person count below current number of users (%d)", len(s.Users))
	}
	s.PersonCount = n
	return nil
}

// SetParticipants replaces the participant list, deduplicating while keeping order.
func (s *Session) SetParticipants(ids []uint) error {
	out := make([]uint, 0, len(ids))
	seen := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	if len(out) > s.PersonCount {
		return ErrTooManyParticipants.WithMessagef(
			"Number of users cannot exceed person count (%d)", s.PersonCount)
	}
	s.Users = out
	return nil
}

// TransitionTo moves the session to next. Re-applying the current status is a no-op.
func (s *Session) TransitionTo(next SessionStatus) error {
	if !next.Valid() {
		return ErrInvalidSessionStatus
	}
	if next == s.Status {
		return nil
	}
	if !s.Status.CanTransitionTo(next) {
		return ErrInvalidStatusTransition.WithMessagef(
			"Cannot change session status from %s to %s", s.Status, next)
	}
	s.Status = next
	return nil
}
