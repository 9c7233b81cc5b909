package battle

import "errors"

// connectivityError is shown on any lane killed by a dropped transport.
const connectivityError = "Connection lost"

var (
	// ErrVoteNotReady is returned when a vote arrives before both lanes
	// reached a terminal phase.
	ErrVoteNotReady = errors.New("battle: both lanes must finish before voting")
	// ErrAlreadyVoted is returned when a battle already has an outcome.
	ErrAlreadyVoted = errors.New("battle: vote already recorded")
)

// Apply advances the state by one event and returns the next state. It is
// pure: the input is never mutated and no I/O happens here. Events for lane
// A and lane B commute — only the order of events within a single lane
// matters, which the transport guarantees.
func Apply(s State, ev Event) State {
	switch ev.Type {
	case EventToken:
		l := s.Lane(ev.Side)
		if l.Phase.Terminal() {
			// Tokens arriving after done/errored are dropped, not appended.
			return s
		}
		if l.Phase == Streaming {
			l.Buffer += ev.Text
		} else {
			l.Phase = Streaming
			l.Buffer = ev.Text
		}
		return s.withLane(ev.Side, l)

	case EventReplace:
		// Post-processing can finish after the stream closed and correct
		// the text, so replace works on terminal lanes too. Phase is never
		// touched.
		l := s.Lane(ev.Side)
		l.Buffer = ev.Text
		return s.withLane(ev.Side, l)

	case EventDone:
		l := s.Lane(ev.Side)
		if l.Phase.Terminal() {
			return s
		}
		lat := ev.LatencyMs
		l.LatencyMs = &lat
		if ev.Err != "" {
			l.Phase = Errored
			l.Err = ev.Err
		} else {
			l.Phase = Done
		}
		return s.withLane(ev.Side, l)

	case EventResult:
		l := s.Lane(ev.Side)
		if l.Phase.Terminal() {
			return s
		}
		lat := ev.LatencyMs
		l = Lane{Buffer: ev.Text, LatencyMs: &lat, Phase: Done}
		if ev.Err != "" {
			l.Phase = Errored
			l.Err = ev.Err
		}
		return s.withLane(ev.Side, l)

	case EventSessionEnd:
		s.Ended = true
		return s

	case EventTransportError:
		s.A = failLane(s.A)
		s.B = failLane(s.B)
		s.Ended = true
		return s
	}
	return s
}

// failLane forces a non-terminal lane to Errored with a generic
// connectivity message. Terminal lanes keep their real result.
func failLane(l Lane) Lane {
	if l.Phase.Terminal() {
		return l
	}
	l.Phase = Errored
	l.Err = connectivityError
	return l
}

// RecordVote attaches an accepted vote outcome and marks the battle
// terminal. A vote is valid only once and only when both lanes are
// terminal; otherwise the state is returned unchanged alongside the error.
func RecordVote(s State, v VoteOutcome) (State, error) {
	if s.Vote != nil {
		return s, ErrAlreadyVoted
	}
	if !s.A.Phase.Terminal() || !s.B.Phase.Terminal() {
		return s, ErrVoteNotReady
	}
	outcome := v
	s.Vote = &outcome
	s.Ended = true
	return s, nil
}
