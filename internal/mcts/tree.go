package mcts

import (
	"math/rand"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/janpfeifer/alphago9/internal/board"
)

// Options configures one MctsTree's search and pick/reshape behavior. cmd/selfplay fills most
// fields from its CLI flags and sets UCTScale and SoftPickCutoff to fixed values.
type Options struct {
	// UCTScale is the PUCT constant "scale" in U(i) = scale*P(i)*sqrt(max(1,N-1))/(1+N(i)).
	UCTScale float32

	// ValueInitPenalty is the penalty subtracted (signed by to_play_sign) from v when
	// initializing a newly-expanded node's children's W, clamped into [-1, 1].
	ValueInitPenalty float32

	// DirichletAlpha and NoiseMix parameterize root noise injection.
	DirichletAlpha float32
	NoiseMix       float32

	// SoftPickCutoff is the move number below which PickMove/CalculateSearchPi sample
	// proportionally to N(i)^Temperature rather than taking the argmax.
	SoftPickCutoff int
	Temperature    float32
}

// DefaultOptions returns reasonable defaults for 9x9 self-play, matching the values commonly
// used by AlphaZero-style engines (c_puct around 2, temperature-1 soft play for the opening).
func DefaultOptions() Options {
	return Options{
		UCTScale:         2.0,
		ValueInitPenalty: 2.0,
		DirichletAlpha:   0.03,
		NoiseMix:         0.25,
		SoftPickCutoff:   30,
		Temperature:      1.0,
	}
}

// MctsTree owns the arena of MctsNodes rooted at the current game position. Only one
// SelfplayGame ever touches a given MctsTree, so it needs no internal locking (see spec.md
// section 5's "Shared resource policy").
type MctsTree struct {
	Options Options
	root    *MctsNode
}

// NewMctsTree creates a tree rooted at position, not yet expanded.
func NewMctsTree(position *board.Position, opts Options) *MctsTree {
	t := &MctsTree{Options: opts}
	t.root = newNode(t, nil, board.InvalidCoord, position)
	return t
}

// Root returns the current root node.
func (t *MctsTree) Root() *MctsNode { return t.root }

// actionScore computes AS(i) = Q(i)*to_play_sign + U(i) - 1000*not-legal(i) for node n's child
// edge i, per spec.md 4.2's SelectLeaf paragraph. allowPass forces AS(pass) to -100000 when the
// game disallows passing (e.g. very early in a forced-play variant).
func (t *MctsTree) actionScore(n *MctsNode, i int, allowPass bool) float32 {
	c := board.Coord(i)
	if !allowPass && c == board.PassCoord(n.position.Size) {
		return -100000
	}
	den := n.childN[i]
	if den < 1 {
		den = 1
	}
	q := n.childW[i] / den
	sqrtTerm := math32.Sqrt(math32.Max(1, n.totalN-1))
	u := t.Options.UCTScale * n.childP[i] * sqrtTerm / (1 + n.childN[i])
	score := q*n.position.ToPlay.Sign() + u
	if !n.position.LegalMoves[i] {
		score -= 1000
	}
	return score
}

// selectBestChild returns the argmax-scoring move at n, first-index tie-break.
func (t *MctsTree) selectBestChild(n *MctsNode, allowPass bool) board.Coord {
	best := board.Coord(0)
	bestScore := float32(math32.Inf(-1))
	for i := range n.childN {
		score := t.actionScore(n, i, allowPass)
		if score > bestScore {
			bestScore = score
			best = board.Coord(i)
		}
	}
	return best
}

// SelectLeaf walks from the root down through expanded nodes using PUCT selection, descending
// into (creating on demand) the chosen child at each step, and returns the first node that is
// not yet expanded (or is a terminal/game-over node). allowPass forbids selecting pass when
// false, except the walk never gets stuck: an illegal chosen move is replaced by pass.
func (t *MctsTree) SelectLeaf(allowPass bool) *MctsNode {
	cur := t.root
	for cur.isExpanded && !cur.isGameOver {
		move := t.selectBestChild(cur, allowPass)
		if !cur.position.LegalMoves[move] {
			move = board.PassCoord(cur.position.Size)
		}
		cur = cur.getOrAddChild(move)
	}
	return cur
}

// IncorporateResults expands leaf with the given policy priors and value estimate: illegal-move
// priors are zeroed and the rest renormalized, every child edge's W is value-initialized per the
// ValueInitPenalty formula, and the node is marked expanded before backing up v.
func (t *MctsTree) IncorporateResults(leaf *MctsNode, priors []float32, v float32) {
	if leaf.isGameOver {
		panic("mcts: IncorporateResults called on a game-over leaf")
	}
	if leaf.isExpanded {
		panic("mcts: IncorporateResults called on an already-expanded leaf")
	}

	p := make([]float32, len(priors))
	copy(p, priors)
	var sum float32
	for i, legal := range leaf.position.LegalMoves {
		if !legal {
			p[i] = 0
		}
		sum += p[i]
	}
	if sum > 0 {
		for i := range p {
			p[i] /= sum
		}
	}
	copy(leaf.childP, p)
	copy(leaf.originalP, p)

	toPlaySign := leaf.position.ToPlay.Sign()
	wInit := v - t.Options.ValueInitPenalty*toPlaySign
	wInit = math32.Max(-1, math32.Min(1, wInit))
	for i := range leaf.childW {
		leaf.childW[i] = wInit
	}

	leaf.isExpanded = true
	t.BackupValue(leaf, v)
}

// IncorporateEndGameResult backs up v for a game-over leaf without any prior/expansion setup.
func (t *MctsTree) IncorporateEndGameResult(leaf *MctsNode, v float32) {
	if !leaf.isGameOver {
		panic("mcts: IncorporateEndGameResult called on a non-terminal leaf")
	}
	t.BackupValue(leaf, v)
}

// BackupValue walks from leaf to the root, incrementing N and adding v to W along every edge on
// the path. There is no sign flip: W always carries v in Black's perspective.
func (t *MctsTree) BackupValue(leaf *MctsNode, v float32) {
	for cur := leaf; cur.parent != nil; cur = cur.parent {
		idx := cur.move
		cur.parent.childN[idx]++
		cur.parent.childW[idx] += v
		cur.parent.totalN++
	}
}

// applyVirtualLoss walks from leaf to the root adding delta*sign to each edge's W, where sign is
// the to-play color of the node at the near end of that edge (i.e. cur itself, not cur.parent).
// Using cur's color rather than cur.parent's is what makes this bias selection away from the
// in-flight leaf: it's the parent's action-score computation (Q*to_play_sign) that virtual loss
// must move in the pessimistic direction, and the parent's to_play_sign is the opposite of
// cur's, the node just played into.
func applyVirtualLoss(leaf *MctsNode, delta float32) {
	for cur := leaf; cur.parent != nil; cur = cur.parent {
		sign := cur.position.ToPlay.Sign()
		cur.parent.childW[cur.move] += delta * sign
	}
}

// AddVirtualLoss temporarily biases every edge on the path to leaf away from reselection while
// an inference for leaf is in flight.
func (t *MctsTree) AddVirtualLoss(leaf *MctsNode) { applyVirtualLoss(leaf, 1) }

// RevertVirtualLoss exactly cancels a prior AddVirtualLoss(leaf) call.
func (t *MctsTree) RevertVirtualLoss(leaf *MctsNode) { applyVirtualLoss(leaf, -1) }

// sampleDirichlet draws an (unnormalized-then-normalized) Dirichlet(alpha) sample over the n
// legal entries of legal, via n independent Gamma(alpha, 1) draws divided by their sum -- the
// standard construction of a Dirichlet sample, used here instead of gonum's distmv.Dirichlet so
// the exact call signature doesn't need to be verified against a toolchain we never invoke.
func sampleDirichlet(alpha float32, legal []bool) []float32 {
	out := make([]float32, len(legal))
	gamma := distuv.Gamma{Alpha: float64(alpha), Beta: 1}
	samples := make([]float64, len(legal))
	var sum float64
	for i, ok := range legal {
		if !ok {
			continue
		}
		s := gamma.Rand()
		samples[i] = s
		sum += s
	}
	if sum <= 0 {
		return out
	}
	for i := range out {
		out[i] = float32(samples[i] / sum)
	}
	return out
}

// InjectNoise mixes Dirichlet(alpha) noise into the root's priors: P(i) <- (1-mix)*P(i) +
// mix*noise(i), after zeroing and renormalizing the noise itself over legal moves.
func (t *MctsTree) InjectNoise(alpha, mix float32) {
	root := t.root
	if !root.isExpanded {
		panic("mcts: InjectNoise called on a non-expanded root")
	}
	noise := sampleDirichlet(alpha, root.position.LegalMoves)
	for i := range root.childP {
		root.childP[i] = (1-mix)*root.childP[i] + mix*noise[i]
	}
}

// argmaxN returns the legal move with the highest visit count at n, defaulting to pass if no
// move has ever been visited.
func (t *MctsTree) argmaxN(n *MctsNode) board.Coord {
	best := board.PassCoord(n.position.Size)
	var bestN float32 = -1
	for i, legal := range n.position.LegalMoves {
		if !legal {
			continue
		}
		if n.childN[i] > bestN {
			bestN = n.childN[i]
			best = board.Coord(i)
		}
	}
	return best
}

// PickMove selects the root's move to actually play. Below Options.SoftPickCutoff it samples
// proportionally to N(i)^Temperature (excluding pass); otherwise it takes the most-visited
// legal move, tie-breaking by action score. If restrictPassAlive excludes every non-pass point,
// it returns pass.
func (t *MctsTree) PickMove(rnd *rand.Rand, restrictPassAlive bool) board.Coord {
	root := t.root
	size := root.position.Size
	passCoord := board.PassCoord(size)

	var excluded map[board.Coord]bool
	if restrictPassAlive {
		pts := root.position.PassAlivePoints()
		excluded = make(map[board.Coord]bool, len(pts))
		for c := range pts {
			excluded[c] = true
		}
	}

	var candidates []board.Coord
	for i, legal := range root.position.LegalMoves {
		c := board.Coord(i)
		if !legal || c == passCoord {
			continue
		}
		if excluded != nil && excluded[c] {
			continue
		}
		candidates = append(candidates, c)
	}
	if restrictPassAlive && len(candidates) == 0 {
		return passCoord
	}

	if root.position.MoveNumber < t.Options.SoftPickCutoff {
		return t.samplePropotionalToVisits(root, candidates, rnd)
	}

	best := passCoord
	bestN := root.childN[passCoord]
	bestScore := t.actionScore(root, int(passCoord), true)
	for _, c := range candidates {
		n := root.childN[c]
		score := t.actionScore(root, int(c), true)
		if n > bestN || (n == bestN && score > bestScore) {
			bestN = n
			bestScore = score
			best = c
		}
	}
	return best
}

func (t *MctsTree) samplePropotionalToVisits(root *MctsNode, candidates []board.Coord, rnd *rand.Rand) board.Coord {
	if len(candidates) == 0 {
		return board.PassCoord(root.position.Size)
	}
	weights := make([]float32, len(candidates))
	var total float32
	for i, c := range candidates {
		w := math32.Pow(root.childN[c], t.Options.Temperature)
		weights[i] = w
		total += w
	}
	if total <= 0 {
		return candidates[rnd.Intn(len(candidates))]
	}
	target := rnd.Float32() * total
	var cum float32
	for i, w := range weights {
		cum += w
		if target <= cum {
			return candidates[i]
		}
	}
	return candidates[len(candidates)-1]
}

// ReshapeFinalVisits prunes each non-best legal child's visit count down to the smallest N that
// keeps its action score (computed from its *current*, unchanged Q) no greater than the best
// move's action score. See spec.md's "Open question -- target pruning formula": when the
// denominator of the solved inequality is tiny the result can be noisy; this clamps into
// [0, original N(i)] rather than trying to special-case it further.
func (t *MctsTree) ReshapeFinalVisits(restrictPassAlive bool) {
	root := t.root
	bestMove := t.argmaxN(root)
	bestScore := t.actionScore(root, int(bestMove), true)
	sign := root.position.ToPlay.Sign()
	sqrtTerm := math32.Sqrt(math32.Max(1, root.totalN-1))

	for i := range root.childN {
		if board.Coord(i) == bestMove {
			continue
		}
		n := root.childN[i]
		if n <= 0 {
			continue
		}
		q := root.childW[i] / n
		rhs := bestScore - q*sign
		p := root.childP[i]
		if rhs <= 0 || p <= 0 {
			continue // cannot reduce without exceeding bestScore; keep original N(i).
		}
		threshold := t.Options.UCTScale*p*sqrtTerm/rhs - 1
		newN := math32.Ceil(threshold)
		if newN < 0 {
			newN = 0
		}
		if newN > n {
			newN = n
		}
		root.childN[i] = newN
	}

	if restrictPassAlive {
		alive := root.position.PassAlivePoints()
		for c := range alive {
			root.childN[c] = 0
		}
	}

	var total float32
	for _, n := range root.childN {
		total += n
	}
	if total == 0 {
		root.childN[board.PassCoord(root.position.Size)] = 1
		total = 1
	}
	root.totalN = total
}

// CalculateSearchPi returns the trainable pi target: normalized N(i)^Temperature while in the
// soft-pick phase, else normalized N(i).
func (t *MctsTree) CalculateSearchPi() []float32 {
	root := t.root
	temp := float32(1)
	if root.position.MoveNumber < t.Options.SoftPickCutoff {
		temp = t.Options.Temperature
	}
	pi := make([]float32, len(root.childN))
	var total float32
	for i, n := range root.childN {
		v := math32.Pow(n, temp)
		pi[i] = v
		total += v
	}
	if total > 0 {
		for i := range pi {
			pi[i] /= total
		}
	}
	return pi
}

// QPerspective returns the root's value estimate (the most-visited move's Q) from the
// perspective of the side to play, used for the resignation check.
func (t *MctsTree) QPerspective() float32 {
	root := t.root
	best := t.argmaxN(root)
	return root.Q(best) * root.position.ToPlay.Sign()
}

// PlayMove advances the root to the child reached by playing c, dropping every other child of
// the old root (and, transitively, their whole subtrees) for the garbage collector to reclaim.
func (t *MctsTree) PlayMove(c board.Coord) error {
	root := t.root
	if root.isGameOver {
		return errors.Errorf("mcts: PlayMove called on a game-over position")
	}
	if !root.position.LegalMoves[c] {
		return errors.Errorf("mcts: %s is not a legal move", c)
	}
	child := root.getOrAddChild(c)
	if child.superko == nil {
		// The new root keeps the hashes of the whole path it is being cut from, so that superko
		// checks below it still see the game's earlier positions.
		hashes := map[uint64]bool{}
		cur := child
		for ; cur != nil && cur.superko == nil; cur = cur.parent {
			hashes[cur.position.StoneHash] = true
		}
		if cur != nil {
			for h := range cur.superko.hashes {
				hashes[h] = true
			}
		}
		child.superko = &SuperkoCache{hashes: hashes}
	}
	child.parent = nil
	root.children = nil
	t.root = child
	return nil
}
