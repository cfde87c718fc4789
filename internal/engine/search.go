package engine

import (
	"fmt"
	"time"

	"github.com/samber/lo"
	"lukechampine.com/frand"

	"othello/internal/board"
	"othello/internal/core"
)

const (
	infinity = 1 << 30
	// discScore is the value of one disc in a finished position; it dwarfs
	// every heuristic score so solved lines always win
	discScore = 100000
	// evalScale converts heuristic scores to the disc-like figures shown to users
	evalScale      = 100
	mobilityWeight = 5
	checkInterval  = 1024
)

type searcher struct {
	weights   *Weights
	deadline  time.Time
	interrupt func() bool
	wld       bool

	// armed enables aborts; depth 1 always completes so a move is available
	armed   bool
	nodes   int
	aborted bool
}

func (s *searcher) stopped() bool {
	if s.aborted {
		return true
	}
	if !s.armed {
		return false
	}
	s.nodes++
	if s.nodes%checkInterval != 0 {
		return false
	}
	if (s.interrupt != nil && s.interrupt()) || (!s.deadline.IsZero() && time.Now().After(s.deadline)) {
		s.aborted = true
	}
	return s.aborted
}

func (s *searcher) final(b *board.Board, side core.Color) int {
	diff := b.Count(side.Cell()) - b.Count(core.OppositeColor(side).Cell())
	if s.wld {
		switch {
		case diff > 0:
			return discScore
		case diff < 0:
			return -discScore
		default:
			return 0
		}
	}
	return diff * discScore
}

func (s *searcher) evaluate(b *board.Board, side core.Color) int {
	own, opp := side.Cell(), core.OppositeColor(side).Cell()
	score := 0
	for r := 0; r < board.Size; r++ {
		for c := 0; c < board.Size; c++ {
			switch b[r][c] {
			case own:
				score += s.weights[r*board.Size+c]
			case opp:
				score -= s.weights[r*board.Size+c]
			}
		}
	}
	mobility := len(b.LegalMoves(side)) - len(b.LegalMoves(core.OppositeColor(side)))
	return score + mobilityWeight*mobility
}

// negamax returns the score of b for side and the line that reaches it
func (s *searcher) negamax(b board.Board, side core.Color, depth, alpha, beta int) (int, []board.Move) {
	if s.stopped() {
		return 0, nil
	}
	opp := core.OppositeColor(side)
	moves := b.LegalMoves(side)
	if len(moves) == 0 {
		if !b.HasMoves(opp) {
			return s.final(&b, side), nil
		}
		score, pv := s.negamax(b, opp, depth, -beta, -alpha)
		return -score, append([]board.Move{board.Pass}, pv...)
	}
	if depth <= 0 {
		return s.evaluate(&b, side), nil
	}

	best := -infinity
	var bestPV []board.Move
	for _, m := range moves {
		next, _ := b.Play(m, side)
		score, pv := s.negamax(next, opp, depth-1, -beta, -alpha)
		if s.aborted {
			return 0, nil
		}
		score = -score
		if score > best {
			best = score
			bestPV = append([]board.Move{m}, pv...)
		}
		alpha = max(alpha, best)
		if alpha >= beta {
			break
		}
	}
	return best, bestPV
}

// scoreMoves searches every root move with a full window. ok is false when
// the iteration was aborted.
func (s *searcher) scoreMoves(b board.Board, side core.Color, moves []board.Move, depth int) (scores []int, pvs [][]board.Move, ok bool) {
	scores = make([]int, len(moves))
	pvs = make([][]board.Move, len(moves))
	for i, m := range moves {
		next, _ := b.Play(m, side)
		score, pv := s.negamax(next, core.OppositeColor(side), depth-1, -infinity, infinity)
		if s.aborted {
			return nil, nil, false
		}
		scores[i] = -score
		pvs[i] = append([]board.Move{m}, pv...)
	}
	return scores, pvs, true
}

type searchResult struct {
	move  board.Move
	score int
	depth int
	exact bool
	wld   bool
	pv    []board.Move
}

func (r searchResult) text() string {
	return formatScore(r.score, r.wld)
}

// think runs an iterative deepening search, bounded by depth, the move budget
// and force-return
func (l *Local) think(g *localGame, legal []board.Move, cfg core.PlayerConfig, opts Options) searchResult {
	s := &searcher{
		weights:   l.weightsRef(),
		interrupt: func() bool { return l.forceReturn.Load() || l.forceExit.Load() },
	}

	empties := g.board.Count(core.CellEmpty)
	maxDepth := max(cfg.Depth, 1)
	exact := false
	switch {
	case cfg.ExactDepth > 0 && empties <= cfg.ExactDepth:
		maxDepth, exact = empties, true
	case cfg.WLDDepth > 0 && empties <= cfg.WLDDepth:
		maxDepth, exact, s.wld = empties, true, true
	}
	if budget := g.budget(cfg); budget > 0 {
		s.deadline = time.Now().Add(budget)
	}

	var scores []int
	var pvs [][]board.Move
	depth := 0
	for d := 1; d <= maxDepth; d++ {
		s.armed = d > 1
		sc, pv, ok := s.scoreMoves(g.board, g.side, legal, d)
		if !ok {
			break
		}
		scores, pvs, depth = sc, pv, d
	}

	i := pick(scores, opts.Slack, opts.Perturbation)
	return searchResult{
		move:  legal[i],
		score: scores[i],
		depth: depth,
		exact: exact && depth == maxDepth,
		wld:   s.wld,
		pv:    pvs[i],
	}
}

// pick returns the index of the move to play. Perturbation adds uniform noise
// of that many discs to each score; slack widens the choice to every move
// within that many discs of the best.
func pick(scores []int, slack, perturbation float64) int {
	adjusted := make([]int, len(scores))
	noise := int(perturbation * evalScale)
	for i, sc := range scores {
		adjusted[i] = sc
		if noise > 0 {
			adjusted[i] += frand.Intn(2*noise+1) - noise
		}
	}

	best := lo.Max(adjusted)
	window := int(slack * evalScale)
	if window <= 0 {
		return lo.IndexOf(adjusted, best)
	}
	var choices []int
	for i, sc := range adjusted {
		if sc >= best-window {
			choices = append(choices, i)
		}
	}
	return choices[frand.Intn(len(choices))]
}

// rootEvals scores the legal moves for practice mode, one report per depth
func (l *Local) rootEvals(g *localGame, legal []board.Move, depth int, report func([]CandidateEvalPayload)) {
	s := &searcher{
		weights:   l.weightsRef(),
		interrupt: func() bool { return l.forceReturn.Load() || l.forceExit.Load() },
	}
	for d := 1; d <= depth; d++ {
		s.armed = d > 1
		scores, _, ok := s.scoreMoves(g.board, g.side, legal, d)
		if !ok || l.forceReturn.Load() || l.forceExit.Load() {
			return
		}
		best := lo.Max(scores)
		evals := make([]CandidateEvalPayload, len(legal))
		for i, m := range legal {
			evals[i] = CandidateEvalPayload{
				Move:      int(m),
				EvalShort: fmt.Sprintf("%+.1f", float64(scores[i])/evalScale),
				EvalLong:  fmt.Sprintf("%+.2f @%d", float64(scores[i])/evalScale, d),
				Best:      scores[i] == best,
			}
		}
		report(evals)
	}
}

func formatScore(score int, wld bool) string {
	if score >= discScore || score <= -discScore || (wld && score == 0) {
		if wld {
			switch {
			case score > 0:
				return "win"
			case score < 0:
				return "loss"
			default:
				return "draw"
			}
		}
		return fmt.Sprintf("%+d discs", score/discScore)
	}
	return fmt.Sprintf("%+.2f", float64(score)/evalScale)
}

// scoreValue converts a search score to the figure reported per side
func scoreValue(score int) float64 {
	if score >= discScore || score <= -discScore {
		return float64(score / discScore)
	}
	return float64(score) / evalScale
}
