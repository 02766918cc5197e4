/*
 * Kestrel - UCI chess engine in Go
 *
 * MIT License
 *
 * Copyright (c) 2018-2020 Frank Kopp
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package movegen

import (
	"os"
	"path"
	"runtime"
	"testing"

	logging2 "github.com/op/go-logging"
	"github.com/stretchr/testify/assert"

	"github.com/kestrel-chess/kestrel/internal/config"
	myLogging "github.com/kestrel-chess/kestrel/internal/logging"
	"github.com/kestrel-chess/kestrel/internal/moveslice"
	"github.com/kestrel-chess/kestrel/internal/position"
	. "github.com/kestrel-chess/kestrel/internal/types"
)

var logTest *logging2.Logger

// make tests run in the projects root directory
func init() {
	_, filename, _, _ := runtime.Caller(0)
	dir := path.Join(path.Dir(filename), "../..")
	err := os.Chdir(dir)
	if err != nil {
		panic(err)
	}
}

// Setup the tests
func TestMain(m *testing.M) {
	config.Setup()
	logTest = myLogging.GetTestLog()
	code := m.Run()
	os.Exit(code)
}

func TestMovegenString(t *testing.T) {
	mg := NewMoveGen()
	out.Println(mg.String())
}

func TestMovegenGeneratePawnMoves(t *testing.T) {
	mg := NewMoveGen()
	pos, _ := position.NewPositionFen("1kr3nr/pp1pP1P1/2p1p3/3P1p2/1n1bP3/2P5/PP3PPP/RNBQKBNR w KQ -")
	moves := moveslice.MoveSlice{}

	mg.generatePawnMoves(pos, GenCap, false, BbZero, &moves)
	assert.Equal(t, 9, moves.Len())

	moves.Clear()
	mg.generatePawnMoves(pos, GenNonCap, false, BbZero, &moves)
	assert.Equal(t, 16, moves.Len())

	moves.Clear()
	mg.generatePawnMoves(pos, GenAll, false, BbZero, &moves)
	assert.Equal(t, 25, moves.Len())
}

func TestMovegenGenerateCastling(t *testing.T) {
	mg := NewMoveGen()
	pos, _ := position.NewPositionFen("r3k2r/pbppqppp/1pn2n2/1B2p3/1b2P3/N1PP1N2/PP1BQPPP/R3K2R w KQkq -")
	moves := moveslice.MoveSlice{}

	mg.generateCastling(pos, GenAll, &moves)
	assert.Equal(t, 2, moves.Len())
	assert.Equal(t, "e1g1 e1c1", moves.StringUci())
	moves.Clear()

	pos, _ = position.NewPositionFen("r3k2r/pbppqppp/1pn2n2/1B2p3/1b2P3/N1PP1N2/PP1BQPPP/R3K2R b KQkq -")
	mg.generateCastling(pos, GenAll, &moves)
	assert.Equal(t, 2, moves.Len())
	assert.Equal(t, "e8g8 e8c8", moves.StringUci())
}

func TestMovegenGenerateKingMoves(t *testing.T) {
	mg := NewMoveGen()
	moves := moveslice.MoveSlice{}

	pos, _ := position.NewPositionFen("r3k2r/pbpNqppp/1pn2n2/1B2p3/1b2P3/2PP1N2/PP1nQPPP/R3K2R w KQkq -")
	mg.generateKingMoves(pos, GenAll, &moves)
	assert.Equal(t, 3, moves.Len())
	assert.Equal(t, "e1d2 e1d1 e1f1", moves.StringUci())
	moves.Clear()

	pos, _ = position.NewPositionFen("r3k2r/pbpNqppp/1pn2n2/1B2p3/1b2P3/2PP1N2/PP1nQPPP/R3K2R b KQkq -")
	mg.generateKingMoves(pos, GenAll, &moves)
	assert.Equal(t, 3, moves.Len())
	assert.Equal(t, "e8d7 e8d8 e8f8", moves.StringUci())
}

func TestMovegenGenerateMoves(t *testing.T) {
	mg := NewMoveGen()
	moves := moveslice.MoveSlice{}

	pos, _ := position.NewPositionFen("r3k2r/pbpNqppp/1pn2n2/1B2p3/1b2P3/2PP1N2/PP1nQPPP/R3K2R w KQkq -")
	mg.generateMoves(pos, GenCap, false, BbZero, &moves)
	assert.Equal(t, 7, moves.Len())
	moves.Clear()

	pos, _ = position.NewPositionFen("r3k2r/pbpNqppp/1pn2n2/1B2p3/1b2P3/2PP1N2/PP1nQPPP/R3K2R b KQkq -")
	mg.generateMoves(pos, GenNonCap, false, BbZero, &moves)
	assert.Equal(t, 28, moves.Len())
	moves.Clear()

	pos, _ = position.NewPositionFen("r3k2r/pbpNqppp/1pn2n2/1B2p3/1b2P3/2PP1N2/PP1nQPPP/R3K2R b KQkq -")
	mg.generateMoves(pos, GenAll, false, BbZero, &moves)
	assert.Equal(t, 34, moves.Len())
}

// the old officer move generation based on pseudo attacks and
// blocker checks must produce the same set of moves as the magic
// bitboard based generation
func TestGenerateMovesOldAndNew(t *testing.T) {
	mg := NewMoveGen()
	fens := []string{
		position.StartFen,
		"r3k2r/pbpNqppp/1pn2n2/1B2p3/1b2P3/2PP1N2/PP1nQPPP/R3K2R w KQkq -",
		"r3k2r/1ppn3p/2q1q1n1/4P3/2q1Pp2/B5R1/pbp2PPP/1R4K1 b kq e3",
		"R6R/3Q4/1Q4Q1/4Q3/2Q4Q/Q4Q2/pp1Q4/kBNN1KB1 w - -",
	}
	for _, fen := range fens {
		pos, _ := position.NewPositionFen(fen)
		oldMoves := moveslice.MoveSlice{}
		newMoves := moveslice.MoveSlice{}
		mg.generateMovesOld(pos, GenAll, &oldMoves)
		mg.generateMoves(pos, GenAll, false, BbZero, &newMoves)
		assert.Equal(t, oldMoves.Len(), newMoves.Len(), "move counts differ on %s", fen)
		oldMoves.Sort()
		newMoves.Sort()
		assert.Equal(t, oldMoves.StringUci(), newMoves.StringUci(), "moves differ on %s", fen)
	}
}

func TestOnDemand(t *testing.T) {

	mg := NewMoveGen()

	pos := position.NewPosition()

	var moves = moveslice.NewMoveSlice(100)
	for move := mg.GetNextMove(pos, GenAll, pos.HasCheck()); move != MoveNone; move = mg.GetNextMove(pos, GenAll, pos.HasCheck()) {
		moves.PushBack(move)
	}
	assert.Equal(t, 20, moves.Len())
	moves.Clear()

	pos, _ = position.NewPositionFen("r3k2r/pbpNqppp/1pn2n2/1B2p3/1b2P3/2PP1N2/PP1nQPPP/R3K2R w KQkq -")
	for move := mg.GetNextMove(pos, GenAll, pos.HasCheck()); move != MoveNone; move = mg.GetNextMove(pos, GenAll, pos.HasCheck()) {
		moves.PushBack(move)
	}
	assert.Equal(t, 40, moves.Len())
	moves.Clear()

	// 86
	pos, _ = position.NewPositionFen("r3k2r/1ppn3p/2q1q1n1/4P3/2q1Pp2/B5R1/pbp2PPP/1R4K1 b kq e3")
	for move := mg.GetNextMove(pos, GenAll, pos.HasCheck()); move != MoveNone; move = mg.GetNextMove(pos, GenAll, pos.HasCheck()) {
		moves.PushBack(move)
	}
	assert.Equal(t, 86, moves.Len())
	moves.Clear()

	// 218
	pos, _ = position.NewPositionFen("R6R/3Q4/1Q4Q1/4Q3/2Q4Q/Q4Q2/pp1Q4/kBNN1KB1 w - -")
	for move := mg.GetNextMove(pos, GenAll, pos.HasCheck()); move != MoveNone; move = mg.GetNextMove(pos, GenAll, pos.HasCheck()) {
		moves.PushBack(move)
	}
	assert.Equal(t, 218, moves.Len())
	moves.Clear()
}

// on demand generation in evasion mode must produce exactly the
// legal moves of a check position (after the legality filter)
func TestOnDemandEvasion(t *testing.T) {
	mg := NewMoveGen()

	fens := []string{
		// single check - blocks, captures and king moves possible
		"rnbqkbnr/ppp1pppp/8/1B1p4/4P3/8/PPPP1PPP/RNBQK1NR b KQkq -",
		// double check - only king moves
		"4k3/8/8/8/8/5n2/5PP1/4K2r w - -",
		// check which can be resolved by an en passant capture
		"8/8/8/6k1/5Pp1/8/8/3K4 b - f3",
	}

	for _, fen := range fens {
		pos, _ := position.NewPositionFen(fen)
		assert.True(t, pos.HasCheck())

		var odMoves = moveslice.NewMoveSlice(64)
		for move := mg.GetNextMove(pos, GenAll, true); move != MoveNone; move = mg.GetNextMove(pos, GenAll, true) {
			if pos.IsLegalMove(move) {
				odMoves.PushBack(move)
			}
		}

		legalMoves := mg.GenerateLegalMoves(pos, GenAll)
		assert.Equal(t, legalMoves.Len(), odMoves.Len(), "evasion moves differ on %s", fen)
	}
}

func TestMovegenGeneratePseudoLegalMoves(t *testing.T) {

	mg := NewMoveGen()

	pos := position.NewPosition()
	moves := mg.GeneratePseudoLegalMoves(pos, GenAll, false)
	assert.Equal(t, 20, len(*moves))
	moves.Clear()

	pos, _ = position.NewPositionFen("r3k2r/pbpNqppp/1pn2n2/1B2p3/1b2P3/2PP1N2/PP1nQPPP/R3K2R w KQkq -")
	moves = mg.GeneratePseudoLegalMoves(pos, GenAll, false)
	assert.Equal(t, 40, len(*moves))
	moves.Clear()

	// 86 moves
	pos, _ = position.NewPositionFen("r3k2r/1ppn3p/2q1q1n1/4P3/2q1Pp2/B5R1/pbp2PPP/1R4K1 b kq e3")
	moves = mg.GeneratePseudoLegalMoves(pos, GenAll, false)
	assert.Equal(t, 86, len(*moves))
	moves.Clear()

	// 218 moves
	pos, _ = position.NewPositionFen("R6R/3Q4/1Q4Q1/4Q3/2Q4Q/Q4Q2/pp1Q4/kBNN1KB1 w - -")
	moves = mg.GeneratePseudoLegalMoves(pos, GenAll, false)
	assert.Equal(t, 218, len(*moves))
	moves.Clear()
}

func TestMovegenGenerateLegalMoves(t *testing.T) {
	mg := NewMoveGen()

	pos := position.NewPosition()
	moves := mg.GenerateLegalMoves(pos, GenAll)
	assert.Equal(t, 20, len(*moves))
	moves.Clear()

	pos, _ = position.NewPositionFen("r3k2r/pbpNqppp/1pn2n2/1B2p3/1b2P3/2PP1N2/PP1nQPPP/R3K2R w KQkq -")
	moves = mg.GenerateLegalMoves(pos, GenAll)
	assert.Equal(t, 38, len(*moves))
	moves.Clear()

	// 86 pseudo legal - 83 legal moves
	pos, _ = position.NewPositionFen("r3k2r/1ppn3p/2q1q1n1/4P3/2q1Pp2/B5R1/pbp2PPP/1R4K1 b kq e3")
	moves = mg.GenerateLegalMoves(pos, GenAll)
	assert.Equal(t, 83, len(*moves))
	moves.Clear()

	// 218 moves
	pos, _ = position.NewPositionFen("R6R/3Q4/1Q4Q1/4Q3/2Q4Q/Q4Q2/pp1Q4/kBNN1KB1 w - -")
	moves = mg.GenerateLegalMoves(pos, GenAll)
	assert.Equal(t, 218, len(*moves))
	moves.Clear()
}

func TestHasLegalMoves(t *testing.T) {

	mg := NewMoveGen()

	// check mate position
	pos, _ := position.NewPositionFen("rn2kbnr/pbpp1ppp/8/1p2p1q1/4K3/3P4/PPP1PPPP/RNBQ1BNR w kq -")
	assert.False(t, mg.HasLegalMove(pos))
	assert.True(t, pos.HasCheck())

	// stale mate position
	pos, _ = position.NewPositionFen("7k/5K2/6Q1/8/8/8/8/8 b - -")
	assert.False(t, mg.HasLegalMove(pos))
	assert.False(t, pos.HasCheck())

	// only en passant
	pos, _ = position.NewPositionFen("8/8/8/8/5Pp1/6P1/7k/K3BQ2 b - f3")
	assert.True(t, mg.HasLegalMove(pos))
	assert.False(t, pos.HasCheck())
}

func TestMovegenGetMoveFromUci(t *testing.T) {

	pos, _ := position.NewPositionFen("r3k2r/1ppn3p/2q1q1n1/4P3/2q1Pp2/B5R1/pbp2PPP/1R4K1 b kq e3")
	mg := NewMoveGen()

	// invalid pattern
	move := mg.GetMoveFromUci(pos, "8888")
	assert.Equal(t, MoveNone, move)

	// valid move
	move = mg.GetMoveFromUci(pos, "b7b5")
	assert.Equal(t, CreateMove(SqB7, SqB5, Normal, PtNone), move)

	// invalid move
	move = mg.GetMoveFromUci(pos, "a7a5")
	assert.Equal(t, MoveNone, move)

	// valid promotion
	move = mg.GetMoveFromUci(pos, "a2a1Q")
	assert.Equal(t, CreateMove(SqA2, SqA1, Promotion, Queen), move)

	// valid promotion (we allow lower case promotions)
	move = mg.GetMoveFromUci(pos, "a2a1q")
	assert.Equal(t, CreateMove(SqA2, SqA1, Promotion, Queen), move)

	// valid en passant
	move = mg.GetMoveFromUci(pos, "f4e3")
	assert.Equal(t, CreateMove(SqF4, SqE3, EnPassant, PtNone), move)

	// valid castling
	move = mg.GetMoveFromUci(pos, "e8c8")
	assert.Equal(t, CreateMove(SqE8, SqC8, Castling, PtNone), move)
}

func TestMovegenGetMoveFromSan(t *testing.T) {

	pos, _ := position.NewPositionFen("r3k2r/1ppn3p/2q1q1n1/4P3/2q1Pp2/B5R1/pbp2PPP/1R4K1 b kq e3")
	mg := NewMoveGen()

	// invalid pattern
	move := mg.GetMoveFromSan(pos, "33")
	assert.Equal(t, MoveNone, move)

	// valid pawn move
	move = mg.GetMoveFromSan(pos, "b5")
	assert.Equal(t, CreateMove(SqB7, SqB5, Normal, PtNone), move)

	// ambiguous piece move - file disambiguation needed
	move = mg.GetMoveFromSan(pos, "Qee5")
	assert.Equal(t, CreateMove(SqE6, SqE5, Normal, PtNone), move)

	// promotion
	move = mg.GetMoveFromSan(pos, "a1=Q")
	assert.Equal(t, CreateMove(SqA2, SqA1, Promotion, Queen), move)

	// castling
	move = mg.GetMoveFromSan(pos, "O-O-O")
	assert.Equal(t, CreateMove(SqE8, SqC8, Castling, PtNone), move)
}

func TestOnDemandKillerPv(t *testing.T) {
	mg := NewMoveGen()

	pos, _ := position.NewPositionFen("r3k2r/pbpNqppp/1pn2n2/1B2p3/1b2P3/2PP1N2/PP1nQPPP/R3K2R w KQkq -")

	// set a pv move and killers and check they are returned early
	pvMove := mg.GetMoveFromUci(pos, "a2a3")
	killer1 := mg.GetMoveFromUci(pos, "h2h3")
	mg.ResetOnDemand()
	mg.SetPvMove(pvMove)
	mg.StoreKiller(killer1)

	var moves = moveslice.NewMoveSlice(64)
	for move := mg.GetNextMove(pos, GenAll, pos.HasCheck()); move != MoveNone; move = mg.GetNextMove(pos, GenAll, pos.HasCheck()) {
		moves.PushBack(move)
	}
	assert.Equal(t, 40, moves.Len())
	// pv move is first
	assert.Equal(t, pvMove.MoveOf(), moves.At(0).MoveOf())
	// pv move is returned only once
	count := 0
	for i := 0; i < moves.Len(); i++ {
		if moves.At(i).MoveOf() == pvMove.MoveOf() {
			count++
		}
	}
	assert.Equal(t, 1, count)
	// killer is sorted to the top of the quiet moves and before
	// other quiet moves of its generation stage
	killerIndex := -1
	for i := 0; i < moves.Len(); i++ {
		if moves.At(i).MoveOf() == killer1.MoveOf() {
			killerIndex = i
			break
		}
	}
	assert.True(t, killerIndex >= 0)
	// every move between the pv move and the killer is a capture
	for i := 1; i < killerIndex; i++ {
		assert.True(t, pos.IsCapturingMove(moves.At(i)), "quiet move %s returned before killer", moves.At(i).StringUci())
	}
}
