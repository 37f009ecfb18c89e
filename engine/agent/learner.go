package agent

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	engine "github.com/ecterceocgan/deck-divide-dollar/engine"
)

// ---------------------------------------------------------------------------
// Episode trace
// ---------------------------------------------------------------------------

// Visit is one decision of the learning agent: the state it was in and the
// action it took there.
type Visit struct {
	State  int
	Action engine.Action
}

// Trace is the ordered list of visits made during one episode.
type Trace struct {
	visits []Visit
}

// Visit appends a decision. The trace does not know the table size, so
// only a negative state or an unknown action is rejected here; ApplyTrace
// checks the state range.
func (t *Trace) Visit(state int, action engine.Action) error {
	if state < 0 {
		return &InvalidStateIndexError{What: "state", Index: state, Limit: 0}
	}
	if !action.Valid() {
		return &InvalidStateIndexError{What: "action", Index: int(action), Limit: engine.NumActions}
	}
	t.visits = append(t.visits, Visit{State: state, Action: action})
	return nil
}

// Visits returns the recorded decisions in order. The slice must not be
// modified.
func (t *Trace) Visits() []Visit { return t.visits }

// Len returns the number of recorded decisions.
func (t *Trace) Len() int { return len(t.visits) }

// Clear empties the trace, keeping its capacity.
func (t *Trace) Clear() { t.visits = t.visits[:0] }

// ---------------------------------------------------------------------------
// Learner
// ---------------------------------------------------------------------------

// Learner is an on-policy, first-visit Monte Carlo control learner with
// tabular action values.
//
// Q[s,a] is always sum[s,a]/count[s,a], the plain arithmetic mean of every
// reward attributed to (s,a). policy[s] is always the argmax of row Q[s,:],
// ties going to the lowest action ordinal.
type Learner struct {
	numStates  int
	numActions int

	q     *mat.Dense
	count *mat.Dense
	sum   *mat.Dense

	policy []engine.Action
	trace  Trace
}

// NewLearner allocates zeroed value tables. The initial policy is the greedy
// policy over the zero table, action 0 everywhere.
func NewLearner(numStates, numActions int) (*Learner, error) {
	if numStates <= 0 {
		return nil, &engine.ConfigurationError{Field: "states", Reason: "number of states must be positive"}
	}
	if numActions <= 0 || numActions > 255 {
		return nil, &engine.ConfigurationError{Field: "actions", Reason: "number of actions must be in [1,255]"}
	}
	return &Learner{
		numStates:  numStates,
		numActions: numActions,
		q:          mat.NewDense(numStates, numActions, nil),
		count:      mat.NewDense(numStates, numActions, nil),
		sum:        mat.NewDense(numStates, numActions, nil),
		policy:     make([]engine.Action, numStates),
	}, nil
}

// NumStates returns the number of table rows.
func (l *Learner) NumStates() int { return l.numStates }

// NumActions returns the number of table columns.
func (l *Learner) NumActions() int { return l.numActions }

func (l *Learner) checkState(state int) error {
	if state < 0 || state >= l.numStates {
		return &InvalidStateIndexError{What: "state", Index: state, Limit: l.numStates}
	}
	return nil
}

func (l *Learner) checkAction(action engine.Action) error {
	if int(action) >= l.numActions {
		return &InvalidStateIndexError{What: "action", Index: int(action), Limit: l.numActions}
	}
	return nil
}

// Update attributes one reward to (state, action), recomputes the mean and
// refreshes the greedy action of state.
func (l *Learner) Update(state int, action engine.Action, reward float64) error {
	if err := l.checkState(state); err != nil {
		return err
	}
	if err := l.checkAction(action); err != nil {
		return err
	}
	l.update(state, int(action), reward)
	return nil
}

func (l *Learner) update(s, a int, reward float64) {
	n := l.count.At(s, a) + 1
	total := l.sum.At(s, a) + reward
	l.count.Set(s, a, n)
	l.sum.Set(s, a, total)
	l.q.Set(s, a, total/n)
	l.policy[s] = engine.Action(floats.MaxIdx(l.q.RawRowView(s)))
}

// ---------------------------------------------------------------------------
// Episode bookkeeping
// ---------------------------------------------------------------------------

// RecordStateSeen appends state to the current episode trace, attributed to
// the action the policy holds for it right now.
func (l *Learner) RecordStateSeen(state int) error {
	if err := l.checkState(state); err != nil {
		return err
	}
	return l.trace.Visit(state, l.policy[state])
}

// RecordAction overrides the action of the most recent visit with the action
// actually taken, e.g. a random exploring-starts choice.
func (l *Learner) RecordAction(action engine.Action) error {
	if err := l.checkAction(action); err != nil {
		return err
	}
	n := len(l.trace.visits)
	if n == 0 {
		return &InvalidStateIndexError{What: "visit", Index: 0, Limit: 0}
	}
	l.trace.visits[n-1].Action = action
	return nil
}

// Visit records a state together with the action taken in it.
func (l *Learner) Visit(state int, action engine.Action) error {
	if err := l.checkState(state); err != nil {
		return err
	}
	if err := l.checkAction(action); err != nil {
		return err
	}
	return l.trace.Visit(state, action)
}

// ClearStatesSeen empties the trace. Called at the start of every episode.
func (l *Learner) ClearStatesSeen() { l.trace.Clear() }

// StatesSeen returns the states of the current trace in visit order.
func (l *Learner) StatesSeen() []int {
	out := make([]int, len(l.trace.visits))
	for i, v := range l.trace.visits {
		out[i] = v.State
	}
	return out
}

// FinishEpisode applies the episode outcome to the learner's own trace.
func (l *Learner) FinishEpisode(reward float64) error {
	return l.ApplyTrace(&l.trace, reward)
}

// ApplyTrace propagates one terminal reward to every state of trace on its
// first occurrence, using the action taken at that first visit. The whole
// trace is validated before any table is touched.
func (l *Learner) ApplyTrace(trace *Trace, reward float64) error {
	for _, v := range trace.visits {
		if err := l.checkState(v.State); err != nil {
			return err
		}
		if err := l.checkAction(v.Action); err != nil {
			return err
		}
	}
	seen := make(map[int]struct{}, len(trace.visits))
	for _, v := range trace.visits {
		if _, ok := seen[v.State]; ok {
			continue
		}
		seen[v.State] = struct{}{}
		l.update(v.State, int(v.Action), reward)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Read access
// ---------------------------------------------------------------------------

// Q returns the current mean reward of (state, action).
func (l *Learner) Q(state int, action engine.Action) (float64, error) {
	if err := l.checkState(state); err != nil {
		return 0, err
	}
	if err := l.checkAction(action); err != nil {
		return 0, err
	}
	return l.q.At(state, int(action)), nil
}

// Greedy returns the policy action for state.
func (l *Learner) Greedy(state int) (engine.Action, error) {
	if err := l.checkState(state); err != nil {
		return 0, err
	}
	return l.policy[state], nil
}

// Policy returns a copy of the greedy policy. Safe to share read-only
// between goroutines while the learner keeps updating.
func (l *Learner) Policy() []engine.Action {
	return append([]engine.Action(nil), l.policy...)
}

// Tables is an exported copy of the learner's tables for inspection or
// persistence.
type Tables struct {
	Q      *mat.Dense
	Count  *mat.Dense
	Sum    *mat.Dense
	Policy []engine.Action
}

// Tables returns deep copies of Q, count, sum and the policy.
func (l *Learner) Tables() Tables {
	return Tables{
		Q:      mat.DenseCopyOf(l.q),
		Count:  mat.DenseCopyOf(l.count),
		Sum:    mat.DenseCopyOf(l.sum),
		Policy: l.Policy(),
	}
}
