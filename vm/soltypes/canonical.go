package soltypes

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// CanonicalName renders t the way it appears in a function signature.
func CanonicalName(t Type) string {
	switch x := t.(type) {
	case PointerType:
		return CanonicalName(x.To)
	case AddressType, ContractType:
		return "address"
	case *EnumType:
		return fmt.Sprintf("uint%d", EnumBits(x))
	case FunctionType:
		return "function"
	case ArrayType:
		if x.Size == nil {
			return CanonicalName(x.Elem) + "[]"
		}
		return fmt.Sprintf("%s[%s]", CanonicalName(x.Elem), x.Size)
	case TupleType:
		parts := make([]string, len(x.Elems))
		for i, e := range x.Elems {
			parts[i] = CanonicalName(e)
		}
		return "(" + strings.Join(parts, ",") + ")"
	case *StructType:
		fs := WireFields(x)
		parts := make([]string, len(fs))
		for i, f := range fs {
			parts[i] = CanonicalName(f.Type)
		}
		return "(" + strings.Join(parts, ",") + ")"
	}
	return t.String()
}

// Signature builds "name(t1,t2,...)".
func Signature(name string, params []Type) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = CanonicalName(p)
	}
	return name + "(" + strings.Join(parts, ",") + ")"
}

// Parse reads an ABI type string such as "uint256[2][]" or "(address,bytes)".
func Parse(s string) (Type, error) {
	p := &typeParser{src: strings.TrimSpace(s)}
	t, err := p.parse()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.src) {
		return nil, errors.Errorf("unexpected trailing input in type %q", s)
	}
	return t, nil
}

// ParseList reads a comma separated list of types, e.g. "uint256,string".
func ParseList(s string) ([]Type, error) {
	t, err := Parse("(" + s + ")")
	if err != nil {
		return nil, err
	}
	return t.(TupleType).Elems, nil
}

type typeParser struct {
	src string
	pos int
}

func (p *typeParser) parse() (Type, error) {
	var base Type
	if p.pos < len(p.src) && p.src[p.pos] == '(' {
		p.pos++
		var elems []Type
		for p.pos < len(p.src) && p.src[p.pos] != ')' {
			e, err := p.parse()
			if err != nil {
				return nil, err
			}
			elems = append(elems, e)
			if p.pos < len(p.src) && p.src[p.pos] == ',' {
				p.pos++
			}
		}
		if p.pos >= len(p.src) {
			return nil, errors.New("unterminated tuple type")
		}
		p.pos++
		base = TupleType{Elems: elems}
	} else {
		start := p.pos
		for p.pos < len(p.src) && isIdentChar(p.src[p.pos]) {
			p.pos++
		}
		t, err := elementary(p.src[start:p.pos])
		if err != nil {
			return nil, err
		}
		base = t
	}
	for p.pos < len(p.src) && p.src[p.pos] == '[' {
		end := strings.IndexByte(p.src[p.pos:], ']')
		if end < 0 {
			return nil, errors.New("unterminated array type")
		}
		dim := p.src[p.pos+1 : p.pos+end]
		p.pos += end + 1
		if dim == "" {
			base = ArrayType{Elem: base}
			continue
		}
		n, ok := new(big.Int).SetString(dim, 10)
		if !ok || n.Sign() <= 0 {
			return nil, errors.Errorf("invalid array size %q", dim)
		}
		base = ArrayType{Elem: base, Size: n}
	}
	return base, nil
}

func isIdentChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= '0' && c <= '9'
}

func elementary(name string) (Type, error) {
	switch name {
	case "bool":
		return Bool, nil
	case "address":
		return Address, nil
	case "string":
		return String, nil
	case "bytes":
		return Bytes, nil
	case "uint":
		return Uint256, nil
	case "int":
		return Int256, nil
	}
	parseWidth := func(prefix string, min, max, step int) (int, bool) {
		if !strings.HasPrefix(name, prefix) {
			return 0, false
		}
		n, err := strconv.Atoi(name[len(prefix):])
		if err != nil || n < min || n > max || n%step != 0 {
			return 0, false
		}
		return n, true
	}
	if n, ok := parseWidth("uint", 8, 256, 8); ok {
		return IntType{Bits: n}, nil
	}
	if n, ok := parseWidth("int", 8, 256, 8); ok {
		return IntType{Bits: n, Signed: true}, nil
	}
	if n, ok := parseWidth("bytes", 1, 32, 1); ok {
		return FixedBytesType{Size: n}, nil
	}
	return nil, errors.Errorf("unknown elementary type %q", name)
}
