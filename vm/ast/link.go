package ast

import (
	"github.com/pkg/errors"
)

// Link assigns node ids and fills the back pointers and linearizations the
// interpreter relies on. Front ends that already provide them may skip it;
// running it twice is harmless.
func Link(unit *SourceUnit) error {
	next := 1
	Inspect(unit, func(n Node) bool {
		setID(n, next)
		next++
		return true
	})
	for _, c := range unit.Contracts {
		c.Unit = unit
		for _, f := range c.Functions {
			f.Contract = c
		}
	}
	for _, c := range unit.Contracts {
		if _, err := Linearize(c); err != nil {
			return err
		}
	}
	return nil
}

func setID(n Node, id int) {
	type identified interface{ setID(int) }
	if s, ok := n.(identified); ok {
		s.setID(id)
	}
}

func (b *Base) setID(id int) { b.ID = id }

// Linearize computes the C3 linearization of c, most derived first. Bases are
// listed in declaration order, so the last one is the most derived.
func Linearize(c *ContractDefinition) ([]*ContractDefinition, error) {
	if c.Linearized != nil {
		return c.Linearized, nil
	}
	var seqs [][]*ContractDefinition
	direct := make([]*ContractDefinition, 0, len(c.Bases))
	for i := len(c.Bases) - 1; i >= 0; i-- {
		base := c.Bases[i].Base
		lin, err := Linearize(base)
		if err != nil {
			return nil, err
		}
		seqs = append(seqs, append([]*ContractDefinition{}, lin...))
		direct = append(direct, base)
	}
	seqs = append(seqs, direct)
	result := []*ContractDefinition{c}
	for {
		seqs = dropEmpty(seqs)
		if len(seqs) == 0 {
			break
		}
		var head *ContractDefinition
		for _, s := range seqs {
			candidate := s[0]
			if !inTail(candidate, seqs) {
				head = candidate
				break
			}
		}
		if head == nil {
			return nil, errors.Errorf("linearization of %s is impossible", c.Name)
		}
		result = append(result, head)
		for i, s := range seqs {
			if s[0] == head {
				seqs[i] = s[1:]
			}
		}
	}
	c.Linearized = result
	return result, nil
}

func dropEmpty(seqs [][]*ContractDefinition) [][]*ContractDefinition {
	out := seqs[:0]
	for _, s := range seqs {
		if len(s) > 0 {
			out = append(out, s)
		}
	}
	return out
}

func inTail(c *ContractDefinition, seqs [][]*ContractDefinition) bool {
	for _, s := range seqs {
		for _, x := range s[1:] {
			if x == c {
				return true
			}
		}
	}
	return false
}
