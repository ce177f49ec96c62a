// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package smiles

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"alanine", "OC(=O)C(N)C", false},
		{"ring", "c1ccccc1CC(N)C(=O)O", false},
		{"reused ring label", "C1CC1C1CC1", false},
		{"two digit ring", "C%10CCCC%10", false},
		{"bracket atom", "C[C@@H](N)C(=O)O", false},
		{"zwitterion", "C[C@@H]([NH3+])C(=O)[O-]", false},
		{"empty", "", true},
		{"whitespace", "CC O", true},
		{"unclosed branch", "CC(N", true},
		{"extra close", "CC)N", true},
		{"leading branch", "(C)C", true},
		{"unclosed bracket", "C[NH3+", true},
		{"stray close bracket", "CN]", true},
		{"open ring", "C1CCC", true},
		{"bad percent label", "C%1CC", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalid)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestNeutralize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"zwitterion", "C[C@@H]([NH3+])C(=O)[O-]", "C[C@@H](N)C(=O)O"},
		{"carboxylate first", "[O-]C(=O)C([NH3+])C", "OC(=O)C(N)C"},
		{"carboxylate branch form", "NCC([O-])=O", "NCC(O)=O"},
		{"carbonyl oxygen first", "O=C([O-])[C@@H]([NH3+])C", "O=C(O)[C@@H](N)C"},
		{"two carboxylates", "O=C([O-])c1ccc(C[C@H]([NH3+])C(=O)[O-])cc1", "O=C(O)c1ccc(C[C@H](N)C(=O)O)cc1"},
		{"carboxylate opening a chain", "[O-]C(C[NH3+])=O", "OC(CN)=O"},
		{"aromatic ring closure", "[O-]C(=O)c1ccccc1", "OC(=O)c1ccccc1"},
		{"alkoxide kept", "C[O-]", "C[O-]"},
		{"hypochlorite kept", "Cl[O-]", "Cl[O-]"},
		{"secondary ammonium", "C1CC[NH2+]C1C(=O)O", "C1CCNC1C(=O)O"},
		{"nitro kept", "OC(=O)C(N)Cc1ccc([N+](=O)[O-])cc1", "OC(=O)C(N)Cc1ccc([N+](=O)[O-])cc1"},
		{"already neutral", "OC(=O)C(N)C", "OC(=O)C(N)C"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Neutralize(tt.input))
		})
	}
}
