// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package smiles performs the light SMILES handling the pipeline needs before
// handing a molecule to external engines: a syntax check and neutralization
// of the charged forms amino acids are commonly drawn in.
package smiles

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalid is returned for strings that cannot be SMILES.
var ErrInvalid = errors.New("invalid SMILES")

// Validate checks SMILES syntax: balanced branches, closed bracket atoms
// and paired ring-closure labels. It does not check valence.
func Validate(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: empty string", ErrInvalid)
	}
	if strings.ContainsAny(s, " \t\r\n") {
		return fmt.Errorf("%w: contains whitespace", ErrInvalid)
	}

	depth := 0
	rings := map[string]int{}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '[':
			end := strings.IndexByte(s[i+1:], ']')
			if end < 0 {
				return fmt.Errorf("%w: unclosed bracket atom at %d", ErrInvalid, i)
			}
			if strings.IndexByte(s[i+1:i+1+end], '[') >= 0 {
				return fmt.Errorf("%w: nested bracket atom at %d", ErrInvalid, i)
			}
			i += end + 1
		case c == ']':
			return fmt.Errorf("%w: unexpected ']' at %d", ErrInvalid, i)
		case c == '(':
			if i == 0 {
				return fmt.Errorf("%w: branch before first atom", ErrInvalid)
			}
			depth++
		case c == ')':
			depth--
			if depth < 0 {
				return fmt.Errorf("%w: unbalanced ')' at %d", ErrInvalid, i)
			}
		case c == '%':
			if i+2 >= len(s) || !isDigit(s[i+1]) || !isDigit(s[i+2]) {
				return fmt.Errorf("%w: bad ring label at %d", ErrInvalid, i)
			}
			rings["%"+s[i+1:i+3]]++
			i += 2
		case isDigit(c):
			rings[string(c)]++
		}
	}
	if depth != 0 {
		return fmt.Errorf("%w: %d unclosed branch(es)", ErrInvalid, depth)
	}
	for label, n := range rings {
		if n%2 != 0 {
			return fmt.Errorf("%w: ring closure %s not closed", ErrInvalid, label)
		}
	}
	return nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// ammonium maps charged amine atoms to their uncharged form.
var ammonium = strings.NewReplacer(
	"[NH3+]", "N",
	"[NH2+]", "N",
	"[NH+]", "N",
)

// Neutralize rewrites zwitterionic amino-acid forms to the uncharged SMILES
// the protection engine expects: carboxylate oxygens become hydroxyls and
// ammonium nitrogens become amines. Other charged atoms, such as the
// oxygen of a nitro group, are left alone. Strings without such fragments
// are returned unchanged.
func Neutralize(s string) string {
	atoms := parseAtoms(s)
	var b strings.Builder
	last := 0
	for i, a := range atoms {
		if a.text != "[O-]" || !onCarbonylCarbon(atoms, i) {
			continue
		}
		b.WriteString(s[last:a.start])
		b.WriteString("O")
		last = a.start + len(a.text)
	}
	b.WriteString(s[last:])
	return ammonium.Replace(b.String())
}

// onCarbonylCarbon reports whether atom i is bonded to a carbon that also
// carries a double-bonded oxygen.
func onCarbonylCarbon(atoms []atom, i int) bool {
	for _, c := range atoms[i].bonds {
		if !isCarbon(atoms[c.to].text) {
			continue
		}
		for _, o := range atoms[c.to].bonds {
			if o.order == '=' && o.to != i && atoms[o.to].text == "O" {
				return true
			}
		}
	}
	return false
}

type bond struct {
	to    int
	order byte
}

type atom struct {
	text  string
	start int
	bonds []bond
}

type ringOpen struct {
	atom  int
	order byte
}

// parseAtoms walks s and returns its atoms with their bonds. Hydrogens
// are implicit. It assumes s passed Validate and tolerates anything else
// by skipping it.
func parseAtoms(s string) []atom {
	var (
		atoms []atom
		stack []int
		rings = map[string]ringOpen{}
		prev  = -1
		order byte
	)
	connect := func(a, b int, o byte) {
		atoms[a].bonds = append(atoms[a].bonds, bond{to: b, order: o})
		atoms[b].bonds = append(atoms[b].bonds, bond{to: a, order: o})
	}
	addAtom := func(start, end int) {
		atoms = append(atoms, atom{text: s[start:end], start: start})
		cur := len(atoms) - 1
		if prev >= 0 && order != '.' {
			connect(prev, cur, order)
		}
		prev, order = cur, 0
	}
	ring := func(label string) {
		if prev < 0 {
			return
		}
		if open, ok := rings[label]; ok {
			o := order
			if o == 0 {
				o = open.order
			}
			connect(open.atom, prev, o)
			delete(rings, label)
		} else {
			rings[label] = ringOpen{atom: prev, order: order}
		}
		order = 0
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '[':
			end := strings.IndexByte(s[i:], ']')
			if end < 0 {
				return atoms
			}
			addAtom(i, i+end+1)
			i += end
		case c == '(':
			stack = append(stack, prev)
		case c == ')':
			if len(stack) > 0 {
				prev = stack[len(stack)-1]
				stack = stack[:len(stack)-1]
			}
		case strings.IndexByte("-=#$:/\\.", c) >= 0:
			order = c
		case c == '%' && i+2 < len(s):
			ring(s[i+1 : i+3])
			i += 2
		case isDigit(c):
			ring(string(c))
		case strings.HasPrefix(s[i:], "Cl"), strings.HasPrefix(s[i:], "Br"):
			addAtom(i, i+2)
			i++
		case strings.IndexByte("BCNOPSFIbcnops", c) >= 0:
			addAtom(i, i+1)
		}
	}
	return atoms
}

// isCarbon reports whether an atom token is carbon, aliphatic or aromatic.
func isCarbon(text string) bool {
	if text == "C" || text == "c" {
		return true
	}
	if !strings.HasPrefix(text, "[") {
		return false
	}
	t := strings.TrimLeft(text[1:], "0123456789")
	if strings.HasPrefix(t, "c") {
		return true
	}
	return strings.HasPrefix(t, "C") && (len(t) == 1 || t[1] < 'a' || t[1] > 'z')
}
