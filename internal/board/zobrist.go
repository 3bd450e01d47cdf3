package board

import "math/rand"

// MaxBoardSize bounds the Zobrist tables below; the engine supports 9x9 and 19x19 boards,
// and any square board up to this size.
const MaxBoardSize = 19

// zobristSeed fixes the Zobrist tables across runs: positions must hash identically between
// processes (e.g. an MctsNode's SuperkoCache built in one process and compared in a test).
const zobristSeed = 0x516f5f676f // "Qo_go" in ASCII hex, arbitrary but fixed.

var (
	// moveHash[color][point] covers Black and White stone placements.
	moveHash [3][MaxBoardSize * MaxBoardSize]uint64

	// illegalEmptyPointHash[point] is mixed into cache keys (but not stone_hash) for points
	// that are empty but illegal under superko.
	illegalEmptyPointHash [MaxBoardSize * MaxBoardSize]uint64

	// toPlayHash[color] distinguishes Black-to-play from White-to-play cache keys.
	toPlayHash [3]uint64

	// opponentPassedHash is XOR-ed into cache keys when the previous move was a pass.
	opponentPassedHash uint64
)

func init() {
	src := rand.New(rand.NewSource(zobristSeed))
	for color := range moveHash {
		for point := range moveHash[color] {
			moveHash[color][point] = src.Uint64()
		}
	}
	for point := range illegalEmptyPointHash {
		illegalEmptyPointHash[point] = src.Uint64()
	}
	for color := range toPlayHash {
		toPlayHash[color] = src.Uint64()
	}
	opponentPassedHash = src.Uint64()
}

// MoveHash returns the Zobrist hash contribution of placing a stone of the given color at c.
// XOR-ed into Position.stone_hash when a stone is added or removed.
func MoveHash(c Coord, color Color) uint64 {
	return moveHash[color][c]
}

// IllegalEmptyPointHash returns the Zobrist hash contribution of an empty point that is
// illegal to play under positional superko. Mixed into inference-cache keys only, never
// into stone_hash.
func IllegalEmptyPointHash(c Coord) uint64 {
	return illegalEmptyPointHash[c]
}

// ToPlayHash returns the Zobrist hash contribution of the side to play.
func ToPlayHash(color Color) uint64 {
	return toPlayHash[color]
}

// OpponentPassedHash returns the Zobrist hash contribution applied iff the previous move
// was a pass.
func OpponentPassedHash() uint64 {
	return opponentPassedHash
}
