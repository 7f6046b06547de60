package wordsearch

// Fill puts a random grapheme from the puzzle's alphabet into every empty
// cell inside the grid's extent and returns how many cells it filled. The
// alphabet comes from every ranked word, placed or not. Populated cells are
// left alone, so calling Fill again only touches cells that are still empty.
func Fill(p *Puzzle, rng Source) int {
	alphabet := Alphabet(p.Words)
	if len(alphabet) == 0 {
		return 0
	}

	e := p.Grid.Extent()
	n := 0
	for row := e.Top; row <= e.Bottom; row++ {
		for col := e.Left; col <= e.Right; col++ {
			c := Coord{Row: row, Col: col}
			if _, ok := p.Grid.Get(c); ok {
				continue
			}
			p.Grid.cells[c] = alphabet[rng.Intn(len(alphabet))]
			n++
		}
	}
	return n
}
