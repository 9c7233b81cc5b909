package battle

import "time"

// Phase describes how far a lane has progressed.
type Phase int

const (
	Idle Phase = iota
	Loading
	Streaming
	Done
	Errored
)

var phaseNames = map[Phase]string{
	Idle:      "idle",
	Loading:   "loading",
	Streaming: "streaming",
	Done:      "done",
	Errored:   "errored",
}

func (p Phase) String() string {
	if s, ok := phaseNames[p]; ok {
		return s
	}
	return "unknown"
}

// Terminal reports whether the lane accepts no further phase transitions.
// A terminal lane still accepts replace events (late corrections).
func (p Phase) Terminal() bool {
	return p == Done || p == Errored
}

// Side identifies one of the two anonymous lanes.
type Side int

const (
	SideA Side = iota
	SideB
)

func (s Side) String() string {
	if s == SideB {
		return "b"
	}
	return "a"
}

// Lane tracks one model's streamed result. LatencyMs and Err are set only
// when the lane reaches a terminal phase.
type Lane struct {
	Phase     Phase
	Buffer    string
	LatencyMs *int
	Err       string
}

// State is one battle from start to vote (or abandonment). It is mutated
// only through Apply and RecordVote, both of which return the next state
// by value.
type State struct {
	BattleID     string
	DocumentName string
	StartedAt    time.Time
	A            Lane
	B            Lane
	Ended        bool // stream finished or torn down
	Vote         *VoteOutcome
}

// NewState returns the state of a freshly started battle: both lanes are
// loading, nothing has streamed yet.
func NewState(battleID, documentName string) State {
	return State{
		BattleID:     battleID,
		DocumentName: documentName,
		StartedAt:    time.Now(),
		A:            Lane{Phase: Loading},
		B:            Lane{Phase: Loading},
	}
}

// Lane returns the lane for the given side.
func (s State) Lane(side Side) Lane {
	if side == SideB {
		return s.B
	}
	return s.A
}

func (s State) withLane(side Side, l Lane) State {
	if side == SideB {
		s.B = l
	} else {
		s.A = l
	}
	return s
}

// VoteReady reports whether a vote may be cast: both lanes terminal and no
// vote recorded yet.
func (s State) VoteReady() bool {
	return s.A.Phase.Terminal() && s.B.Phase.Terminal() && s.Vote == nil
}

// Winner names the side a vote chose.
type Winner string

const (
	WinnerA   Winner = "a"
	WinnerB   Winner = "b"
	WinnerTie Winner = "tie"
)

// ModelIdentity is the public identity of a lane's model, revealed only
// after the vote.
type ModelIdentity struct {
	Name     string
	Provider string
	Elo      int
}

// VoteOutcome records an accepted vote. Immutable once created; a battle
// with a recorded outcome accepts no further votes.
type VoteOutcome struct {
	BattleID   string
	Winner     Winner
	ModelA     ModelIdentity
	ModelB     ModelIdentity
	EloChangeA int
	EloChangeB int
}
