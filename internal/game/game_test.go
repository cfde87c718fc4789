package game

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"othello/internal/board"
	"othello/internal/core"
)

type recordingObserver struct {
	NopObserver
	mu     sync.Mutex
	boards int
	evals  []string
	pvs    [][]board.Move
}

func (r *recordingObserver) OnBoard(*State) {
	r.mu.Lock()
	r.boards++
	r.mu.Unlock()
}

func (r *recordingObserver) OnEval(text string) {
	r.mu.Lock()
	r.evals = append(r.evals, text)
	r.mu.Unlock()
}

func (r *recordingObserver) OnPV(moves []board.Move) {
	r.mu.Lock()
	r.pvs = append(r.pvs, moves)
	r.mu.Unlock()
}

func mv(s string) board.Move {
	return board.MustParseMove(s)
}

func TestUpdateInterleavesSequence(t *testing.T) {
	obs := &recordingObserver{}
	s := New(obs)
	require.NotEmpty(t, s.ID())

	black := PlayerInfo{DiscCount: 4, Moves: []board.Move{mv("F5"), board.Pass, mv("C3")}}
	white := PlayerInfo{DiscCount: 1, Moves: []board.Move{mv("D6"), mv("C5")}}
	s.Update(board.New(), core.ColorWhite, black, white)

	seq := s.MoveSequence()
	require.Len(t, seq, core.SequenceLen)
	assert.Equal(t, board.EncodeMove(mv("F5")), seq[0])
	assert.Equal(t, board.EncodeMove(mv("D6")), seq[1])
	assert.Equal(t, board.PassByte, seq[2])
	assert.Equal(t, board.EncodeMove(mv("C5")), seq[3])
	assert.Equal(t, board.EncodeMove(mv("C3")), seq[4])
	assert.Zero(t, seq[5])

	assert.Equal(t, []board.Move{mv("F5"), mv("D6"), board.Pass, mv("C5"), mv("C3")}, s.Moves())
	assert.Equal(t, "F5D6C5C3", s.MoveText())
	assert.Equal(t, core.ColorWhite, s.SideToMove())
	assert.Equal(t, 1, obs.boards)

	// shorter lists after an undo clear the tail
	s.Update(board.New(), core.ColorWhite, PlayerInfo{Moves: []board.Move{mv("F5")}}, PlayerInfo{})
	assert.Equal(t, []board.Move{mv("F5")}, s.Moves())
}

func TestAccessorsReturnCopies(t *testing.T) {
	s := New(nil)
	s.Update(board.New(), core.ColorBlack, PlayerInfo{Moves: []board.Move{mv("F5")}}, PlayerInfo{})

	black := s.Black()
	black.Moves[0] = mv("A1")
	assert.Equal(t, mv("F5"), s.Black().Moves[0])

	seq := s.MoveSequence()
	seq[0] = 0
	assert.Equal(t, board.EncodeMove(mv("F5")), s.MoveSequence()[0])

	s.SetCandidates([]board.Move{mv("D3"), mv("C4")})
	c := s.Candidates()
	c[0].Move = mv("H8")
	assert.Equal(t, mv("D3"), s.Candidates()[0].Move)
}

func TestMergeEvals(t *testing.T) {
	obs := &recordingObserver{}
	s := New(obs)
	s.SetCandidates([]board.Move{mv("D3"), mv("C4"), mv("F5"), mv("E6")})
	assert.Zero(t, obs.boards, "a fresh candidate list does not notify")

	evals := []CandidateEval{
		{Move: mv("C4"), EvalShort: "+2", EvalLong: "+2.10", Best: true},
		{Move: mv("A1"), EvalShort: "-9"}, // not a candidate
		{Move: mv("E6"), EvalShort: "-1", EvalLong: "-0.85"},
	}
	s.MergeEvals(evals)
	assert.Equal(t, 1, obs.boards)

	got := s.Candidates()
	require.Len(t, got, 4)
	assert.Equal(t, []board.Move{mv("D3"), mv("C4"), mv("F5"), mv("E6")}, []board.Move{got[0].Move, got[1].Move, got[2].Move, got[3].Move})
	assert.False(t, got[0].HasEval)
	assert.True(t, got[1].HasEval)
	assert.True(t, got[1].Best)
	assert.Equal(t, "+2.10", got[1].EvalLong)
	assert.Equal(t, "-1", got[3].EvalShort)

	// merging the same report twice changes nothing
	s.MergeEvals(evals)
	assert.Equal(t, got, s.Candidates())

	set := s.CandidateSet()
	assert.Len(t, set.Evaluated(), 2)
	assert.True(t, set.Contains(mv("F5")))
	assert.False(t, set.Contains(mv("A1")))
}

func TestMergeEvalsOnEmptySet(t *testing.T) {
	var set CandidateSet
	assert.Zero(t, set.Merge([]CandidateEval{{Move: mv("D3")}}))
	assert.Zero(t, set.Len())
}

func TestSettersNotify(t *testing.T) {
	obs := &recordingObserver{}
	s := New(obs)

	s.SetOpening("Tiger")
	s.SetLastMove(mv("F5"))
	s.SetNextMove(mv("D6"))
	s.SetEval("+4.00")
	s.SetPV([]board.Move{mv("D6"), mv("C3")})

	assert.Equal(t, 3, obs.boards)
	assert.Equal(t, []string{"+4.00"}, obs.evals)
	require.Len(t, obs.pvs, 1)
	assert.Equal(t, []board.Move{mv("D6"), mv("C3")}, obs.pvs[0])

	assert.Equal(t, "Tiger", s.Opening())
	assert.Equal(t, mv("F5"), s.LastMove())
	assert.Equal(t, mv("D6"), s.NextMove())
	assert.Equal(t, "+4.00", s.EvalText())
	assert.Equal(t, []board.Move{mv("D6"), mv("C3")}, s.PV())
}

func TestSnapshot(t *testing.T) {
	s := New(nil)
	b, err := board.New().Play(mv("F5"), core.ColorBlack)
	require.NoError(t, err)
	s.Update(b, core.ColorWhite, PlayerInfo{DiscCount: 4, Moves: []board.Move{mv("F5")}}, PlayerInfo{DiscCount: 1})
	s.SetCandidates(b.LegalMoves(core.ColorWhite))
	s.SetLastMove(mv("F5"))
	s.SetOpening("")

	snap := s.Snapshot()
	assert.Equal(t, s.ID(), snap.GameID)
	assert.Equal(t, "w", snap.SideToMove)
	assert.Equal(t, "F5", snap.Moves)
	assert.Equal(t, 1, snap.PlyCount)
	assert.Equal(t, "F5", snap.LastMove)
	assert.Empty(t, snap.NextMove)
	assert.Len(t, snap.Candidates, 3)
	assert.Equal(t, b.Grid(), snap.Board)
	assert.Contains(t, snap.ASCII, "A B C D E F G H")
}

func TestObserversFanOut(t *testing.T) {
	a, b := &recordingObserver{}, &recordingObserver{}
	obs := Observers(a, nil, b)
	obs.OnEval("x")
	obs.OnBoard(nil)

	assert.Equal(t, []string{"x"}, a.evals)
	assert.Equal(t, []string{"x"}, b.evals)
	assert.Equal(t, 1, b.boards)

	assert.Same(t, a, Observers(nil, a))
}
