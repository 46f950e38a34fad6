// Package artifacts stands in for compiled output: it gives every contract a
// creation and a deployed bytecode, records where library addresses must be
// linked in, and maps bytecode back to contract definitions.
package artifacts

import (
	"bytes"
	"sort"

	"github.com/annchain/solinterp/common"
	"github.com/annchain/solinterp/common/crypto"
	"github.com/annchain/solinterp/vm/ast"
	"github.com/annchain/solinterp/vm/soltypes"
	"github.com/pkg/errors"
)

// LinkRef is a 20-byte placeholder in creation code to be replaced by a library address.
type LinkRef struct {
	Library string
	Offset  int
}

type Artifact struct {
	Contract *ast.ContractDefinition
	// Creation is unlinked: placeholders are zero.
	Creation []byte
	Deployed []byte
	LinkRefs []LinkRef
}

type Registry struct {
	byName map[string]*Artifact
	names  []string
}

func NewRegistry() *Registry {
	return &Registry{byName: map[string]*Artifact{}}
}

// Compile registers an artifact for every contract of the unit.
func Compile(units ...*ast.SourceUnit) (*Registry, error) {
	r := NewRegistry()
	for _, u := range units {
		for _, c := range u.Contracts {
			if err := r.Add(u, c); err != nil {
				return nil, err
			}
		}
	}
	return r, nil
}

func (r *Registry) Add(unit *ast.SourceUnit, c *ast.ContractDefinition) error {
	if _, dup := r.byName[c.Name]; dup {
		return errors.Errorf("contract %s registered twice", c.Name)
	}
	id := unit.Path + ":" + c.Name
	creation := crypto.Keccak256([]byte("creation:" + id))
	var refs []LinkRef
	for _, lib := range LinkedLibraries(c) {
		refs = append(refs, LinkRef{Library: lib, Offset: len(creation)})
		creation = append(creation, make([]byte, common.AddressLength)...)
	}
	r.byName[c.Name] = &Artifact{
		Contract: c,
		Creation: creation,
		Deployed: crypto.Keccak256([]byte("deployed:" + id)),
		LinkRefs: refs,
	}
	r.names = append(r.names, c.Name)
	return nil
}

func (r *Registry) ByName(name string) (*Artifact, bool) {
	a, ok := r.byName[name]
	return a, ok
}

// Names lists contracts in registration order.
func (r *Registry) Names() []string {
	return append([]string{}, r.names...)
}

// Link fills the library placeholders of a's creation code.
func (a *Artifact) Link(libraries map[string]common.Address) ([]byte, error) {
	code := common.CopyBytes(a.Creation)
	for _, ref := range a.LinkRefs {
		addr, ok := libraries[ref.Library]
		if !ok {
			return nil, errors.Errorf("library %s is not deployed, cannot link %s", ref.Library, a.Contract.Name)
		}
		copy(code[ref.Offset:], addr.Bytes[:])
	}
	return code, nil
}

// ByCreationPrefix finds the contract whose linked creation code prefixes data and
// returns the remaining constructor arguments.
func (r *Registry) ByCreationPrefix(data []byte, libraries map[string]common.Address) (*Artifact, []byte, bool) {
	for _, name := range r.names {
		a := r.byName[name]
		code, err := a.Link(libraries)
		if err != nil {
			continue
		}
		if bytes.HasPrefix(data, code) {
			return a, data[len(code):], true
		}
	}
	return nil, nil, false
}

func (r *Registry) ByDeployedCode(code []byte) (*Artifact, bool) {
	for _, name := range r.names {
		if a := r.byName[name]; bytes.Equal(a.Deployed, code) {
			return a, true
		}
	}
	return nil, false
}

// LinkedLibraries lists, sorted, the libraries whose public functions c calls
// and which therefore have to be deployed first.
func LinkedLibraries(c *ast.ContractDefinition) []string {
	set := map[string]bool{}
	contracts := c.Linearized
	if contracts == nil {
		contracts = []*ast.ContractDefinition{c}
	}
	for _, base := range contracts {
		ast.Inspect(base, func(n ast.Node) bool {
			ma, ok := n.(*ast.MemberAccess)
			if !ok {
				return true
			}
			tn, ok := ma.Expression.StaticType().(soltypes.TypeNameType)
			if !ok {
				return true
			}
			ct, ok := tn.Type.(soltypes.ContractType)
			if !ok || !ct.Library {
				return true
			}
			if calledByDelegation(base.Unit, ct.Name, ma) {
				set[ct.Name] = true
			}
			return true
		})
	}
	libs := make([]string, 0, len(set))
	for l := range set {
		libs = append(libs, l)
	}
	sort.Strings(libs)
	return libs
}

// calledByDelegation reports whether lib.member is a public library function,
// which runs in the library's own code rather than being inlined.
func calledByDelegation(unit *ast.SourceUnit, lib string, ma *ast.MemberAccess) bool {
	if unit != nil {
		for _, c := range unit.Contracts {
			if c.Name != lib {
				continue
			}
			for _, f := range c.Functions {
				if f.Name == ma.Member {
					return f.Visibility == ast.VisibilityPublic || f.Visibility == ast.VisibilityExternal
				}
			}
		}
	}
	ft, ok := ma.StaticType().(soltypes.FunctionType)
	return ok && ft.External
}
