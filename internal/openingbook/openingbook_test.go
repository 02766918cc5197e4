//
// Kestrel - UCI chess engine in Go
//
// MIT License
//
// Copyright (c) 2018-2020 Frank Kopp
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.
//

package openingbook

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrel-chess/kestrel/internal/config"
	"github.com/kestrel-chess/kestrel/internal/position"
	. "github.com/kestrel-chess/kestrel/internal/types"
)

// Setup the tests
func TestMain(m *testing.M) {
	config.Setup()
	code := m.Run()
	os.Exit(code)
}

// writes a book file fixture into a temp folder and returns folder and file name
func writeBookFile(t *testing.T, name string, content string) (string, string) {
	t.Helper()
	dir, err := ioutil.TempDir("", "kestrel-book")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	err = ioutil.WriteFile(filepath.Join(dir, name), []byte(content), 0644)
	require.NoError(t, err)
	return dir, name
}

func TestReadingNonExistingFile(t *testing.T) {
	dir, _ := writeBookFile(t, "empty.txt", "")
	b := NewBook()
	err := b.Initialize(dir, "does_not_exist.pgn", Simple, false, false)
	assert.Error(t, err, "Initializing from a non existing file should return an error")
}

func TestProcessingEmpty(t *testing.T) {
	dir, file := writeBookFile(t, "empty.txt", "\n\n")
	book := NewBook()
	err := book.Initialize(dir, file, Simple, false, false)
	assert.NoError(t, err, "Initialize book threw error: %s", err)
	assert.Equal(t, 1, book.NumberOfEntries())

	startPos := position.NewPosition()
	entry, ok := book.GetEntry(startPos.ZobristKey())
	assert.True(t, ok)
	assert.EqualValues(t, entry.ZobristKey, startPos.ZobristKey())

	entry, ok = book.GetEntry(Key(1234))
	assert.False(t, ok)
	assert.True(t, entry.ZobristKey == 0)
}

func TestProcessingSimple(t *testing.T) {
	// three games in simple from-to notation - two share the first move
	content := "e2e4 e7e5 g1f3\n" +
		"e2e4 c7c5\n" +
		"d2d4 d7d5\n"
	dir, file := writeBookFile(t, "book_simple.txt", content)

	book := NewBook()
	err := book.Initialize(dir, file, Simple, false, false)
	assert.NoError(t, err, "Initialize book threw error: %s", err)
	// root + e2e4 + e7e5 + g1f3 + c7c5 + d2d4 + d7d5
	assert.Equal(t, 7, book.NumberOfEntries())

	// get root entry
	pos := position.NewPosition()
	entry, found := book.GetEntry(pos.ZobristKey())
	assert.True(t, found)
	assert.Equal(t, book.rootEntry, entry.ZobristKey)
	assert.Equal(t, 2, len(entry.Moves))
	assert.Equal(t, 3, entry.Counter)

	// follow the e2e4 move
	pos.DoMove(CreateMove(SqE2, SqE4, Normal, PtNone))
	entry, found = book.GetEntry(pos.ZobristKey())
	assert.True(t, found)
	assert.EqualValues(t, entry.ZobristKey, pos.ZobristKey())
	assert.Equal(t, 2, len(entry.Moves))
	assert.Equal(t, 2, entry.Counter)

	for _, p := range entry.Moves {
		ne, ok := book.GetEntry(Key(p.NextEntry))
		assert.True(t, ok)
		assert.True(t, Move(p.Move).IsValid())
		assert.EqualValues(t, ne.ZobristKey, p.NextEntry)
	}
}

func TestProcessingSAN(t *testing.T) {
	content := "1. e4 e5 2. Nf3 Nc6 3. Bb5 1/2-1/2\n" +
		"1. e4 c5 2. Nf3 d6 0-1\n" +
		"1. d4 d5 2. c4 e6 1-0\n"
	dir, file := writeBookFile(t, "book_san.txt", content)

	book := NewBook()
	err := book.Initialize(dir, file, San, false, false)
	assert.NoError(t, err, "Initialize book threw error: %s", err)

	// get root entry
	pos := position.NewPosition()
	entry, found := book.GetEntry(pos.ZobristKey())
	assert.True(t, found)
	assert.Equal(t, book.rootEntry, entry.ZobristKey)
	assert.Equal(t, 2, len(entry.Moves))
	assert.Equal(t, 3, entry.Counter)

	pos.DoMove(CreateMove(SqE2, SqE4, Normal, PtNone))
	entry, found = book.GetEntry(pos.ZobristKey())
	assert.True(t, found)
	assert.Equal(t, 2, len(entry.Moves))
	assert.Equal(t, 2, entry.Counter)
}

func TestProcessingPGN(t *testing.T) {
	content := `[Event "Test Game 1"]
[Result "1-0"]

1. e4 e5 2. Nf3 {a comment} Nc6 3. Bb5 a6 1-0

[Event "Test Game 2"]
[Result "0-1"]

1. e4 c5 2. Nf3 d6 $1 0-1

[Event "Test Game 3"]
[Result "1/2-1/2"]

1. d4 Nf6 2. c4 e6 1/2-1/2
`
	dir, file := writeBookFile(t, "book_test.pgn", content)

	book := NewBook()
	err := book.Initialize(dir, file, Pgn, false, false)
	assert.NoError(t, err, "Initialize book threw error: %s", err)

	// get root entry
	pos := position.NewPosition()
	entry, found := book.GetEntry(pos.ZobristKey())
	assert.True(t, found)
	assert.Equal(t, book.rootEntry, entry.ZobristKey)
	assert.Equal(t, 2, len(entry.Moves))
	assert.Equal(t, 3, entry.Counter)

	pos.DoMove(CreateMove(SqE2, SqE4, Normal, PtNone))
	entry, found = book.GetEntry(pos.ZobristKey())
	assert.True(t, found)
	assert.Equal(t, 2, len(entry.Moves))
	assert.Equal(t, 2, entry.Counter)
}

func TestProcessingPGNCache(t *testing.T) {
	content := `[Result "1-0"]

1. e4 e5 2. Nf3 Nc6 1-0
`
	dir, file := writeBookFile(t, "book_cache.pgn", content)

	book := NewBook()
	err := book.Initialize(dir, file, Pgn, true, true)
	assert.NoError(t, err, "Initialize book threw error: %s", err)
	numberOfEntries := book.NumberOfEntries()
	assert.Equal(t, 5, numberOfEntries)

	book.Reset()
	assert.Equal(t, 0, book.NumberOfEntries())

	// this time the book should be read from the cache file
	err = book.Initialize(dir, file, Pgn, true, false)
	assert.NoError(t, err, "Initialize book threw error: %s", err)
	assert.Equal(t, numberOfEntries, book.NumberOfEntries())

	// get root entry
	pos := position.NewPosition()
	entry, found := book.GetEntry(pos.ZobristKey())
	assert.True(t, found)
	assert.Equal(t, book.rootEntry, entry.ZobristKey)
	assert.Equal(t, 1, len(entry.Moves))

	pos.DoMove(CreateMove(SqE2, SqE4, Normal, PtNone))
	entry, found = book.GetEntry(pos.ZobristKey())
	assert.True(t, found)
	assert.Equal(t, entry.ZobristKey, uint64(pos.ZobristKey()))
	assert.Equal(t, 1, len(entry.Moves))
}
