package records

import "sort"

// Tooth numbers use FDI two-digit notation: the first digit is the quadrant
// (1-4 permanent, 5-8 primary), the second the position from the midline
// (1-8 permanent, 1-5 primary). Canonical ordering is quadrant first, then
// position. Lexical string order is never correct here: it would place "2"
// before "11".

// ValidToothNumber reports whether s is a well-formed FDI tooth number.
func ValidToothNumber(s string) bool {
	_, ok := toothSortKey(s)
	return ok
}

// toothSortKey maps an FDI tooth number onto its canonical rank. Permanent
// quadrants (1-4) sort before primary quadrants (5-8), each quadrant ordered
// by position from the midline.
func toothSortKey(s string) (int, bool) {
	if len(s) != 2 {
		return 0, false
	}
	quadrant := int(s[0] - '0')
	position := int(s[1] - '0')
	if quadrant < 1 || quadrant > 8 || position < 1 {
		return 0, false
	}
	if quadrant <= 4 {
		if position > 8 {
			return 0, false
		}
	} else if position > 5 {
		return 0, false
	}
	return quadrant*10 + position, true
}

// CompareToothNumbers orders two tooth numbers canonically. Well-formed FDI
// numbers sort by quadrant then position; malformed values sort after all
// valid ones, lexically among themselves, so they stay visible rather than
// disappearing.
func CompareToothNumbers(a, b string) bool {
	ka, okA := toothSortKey(a)
	kb, okB := toothSortKey(b)
	switch {
	case okA && okB:
		if ka != kb {
			return ka < kb
		}
		return a < b
	case okA:
		return true
	case okB:
		return false
	default:
		return a < b
	}
}

// SortToothNumbers sorts tooth numbers in place into canonical FDI order.
func SortToothNumbers(teeth []string) {
	sort.Slice(teeth, func(i, j int) bool {
		return CompareToothNumbers(teeth[i], teeth[j])
	})
}
