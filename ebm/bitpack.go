package ebm

// Bit-packed column storage. A combination's column stores one tensor bin
// index per case, itemsPerPack indices to a word, the first case in the
// lowest bits. The mask (1<<bitsPerItem)-1 and the shift by bitsPerItem
// recover indices in original case order; unused high bits of the last
// word are never read.

// packColumn packs caseBins into words with the given geometry.
func packColumn(caseBins []int, itemsPerPack, bitsPerItem int) []uint64 {
	if len(caseBins) == 0 {
		return nil
	}
	words := make([]uint64, (len(caseBins)+itemsPerPack-1)/itemsPerPack)
	for i, b := range caseBins {
		words[i/itemsPerPack] |= uint64(b) << (uint(i%itemsPerPack) * uint(bitsPerItem))
	}
	return words
}

// packedIter walks a packed column in case order.
type packedIter struct {
	words    []uint64
	mask     uint64
	bits     uint
	perWord  int
	word     uint64
	inWord   int
	nextWord int
}

func newPackedIter(words []uint64, itemsPerPack, bitsPerItem int) packedIter {
	return packedIter{
		words:   words,
		mask:    (uint64(1) << uint(bitsPerItem)) - 1,
		bits:    uint(bitsPerItem),
		perWord: itemsPerPack,
	}
}

// next returns the bin index of the next case. Calling it more than the
// case count times yields the zero padding of the last word and then
// panics past the end of the column; the drivers bound their loops by the
// dataset case count.
func (it *packedIter) next() int {
	if it.inWord == 0 {
		it.word = it.words[it.nextWord]
		it.nextWord++
		it.inWord = it.perWord
	}
	bin := int(it.word & it.mask)
	it.word >>= it.bits
	it.inWord--
	return bin
}
