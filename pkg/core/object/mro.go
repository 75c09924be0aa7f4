package object

import "fmt"

// c3Linearize computes the C3 method resolution order for t from its
// Bases tuple (spec.md section 9: "compute C3 linearization eagerly when
// a type is created"). The algorithm is the standard one used by CPython
// for multiple inheritance: L[C] = C + merge(L[B1], ..., L[Bn], [B1..Bn]).
func c3Linearize(t *TypePrototype) ([]*TypePrototype, error) {
	if len(t.Bases) == 0 {
		return []*TypePrototype{t}, nil
	}

	sequences := make([][]*TypePrototype, 0, len(t.Bases)+1)
	for _, b := range t.Bases {
		sequences = append(sequences, append([]*TypePrototype{}, b.mro...))
	}
	sequences = append(sequences, append([]*TypePrototype{}, t.Bases...))

	merged := []*TypePrototype{t}
	for {
		sequences = dropEmpty(sequences)
		if len(sequences) == 0 {
			return merged, nil
		}

		var head *TypePrototype
		for _, seq := range sequences {
			candidate := seq[0]
			if !appearsInTail(candidate, sequences) {
				head = candidate
				break
			}
		}
		if head == nil {
			return nil, fmt.Errorf("object: inconsistent method resolution order for %q", t.Name)
		}

		merged = append(merged, head)
		for i, seq := range sequences {
			sequences[i] = removeHead(seq, head)
		}
	}
}

func dropEmpty(seqs [][]*TypePrototype) [][]*TypePrototype {
	out := seqs[:0]
	for _, s := range seqs {
		if len(s) > 0 {
			out = append(out, s)
		}
	}
	return out
}

func appearsInTail(candidate *TypePrototype, seqs [][]*TypePrototype) bool {
	for _, seq := range seqs {
		for i := 1; i < len(seq); i++ {
			if seq[i] == candidate {
				return true
			}
		}
	}
	return false
}

func removeHead(seq []*TypePrototype, head *TypePrototype) []*TypePrototype {
	if len(seq) > 0 && seq[0] == head {
		return seq[1:]
	}
	return seq
}
