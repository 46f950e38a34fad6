package values

import (
	"math/big"

	"github.com/annchain/solinterp/vm/soltypes"
	"github.com/pkg/errors"
)

var (
	ErrOutOfBounds     = errors.New("index out of bounds")
	ErrPopEmpty        = errors.New("pop from empty array")
	ErrWriteProtection = errors.New("write to storage in a static call")
	ErrReadOnly        = errors.New("location is read-only")
	ErrAllocation      = errors.New("allocation too large")
)

// Decodable reads the value at a location. Reference-typed locations decode to a view of themselves.
type Decodable interface {
	Decode() Value
}

type Encodable interface {
	Encode(v Value) error
}

// View is a typed location in one data area.
type View interface {
	Value
	Decodable
	Encodable
	Type() soltypes.Type
	Location() soltypes.DataLocation
}

// Indexable is implemented by array, bytes and mapping views.
type Indexable interface {
	View
	Index(key Value) (View, error)
	Length() (*big.Int, error)
}

// Structured is implemented by struct views.
type Structured interface {
	View
	Field(name string) (View, error)
}

// Pointer is a slot that holds a reference to another object.
type Pointer interface {
	View
	ToView() View
}

// Resizable is implemented by storage arrays and bytes.
type Resizable interface {
	Indexable
	Push(v Value) (View, error)
	Pop() error
}

// Deref follows pointer slots until it reaches the object view.
func Deref(v Value) Value {
	for {
		p, ok := v.(Pointer)
		if !ok {
			return v
		}
		next := p.ToView()
		if next == View(p) {
			return v
		}
		v = next
	}
}

// Load fully materializes v: scalar views decode to scalars, reference views
// to Composite or Bytes trees. Mappings stay views.
func Load(v Value) Value {
	switch x := v.(type) {
	case View:
		d := x.Decode()
		if dv, ok := d.(View); ok {
			return loadReference(dv)
		}
		return Load(d)
	case Composite:
		elems := make([]Value, len(x.Elems))
		for i, e := range x.Elems {
			elems[i] = Load(e)
		}
		return Composite{Elems: elems, Names: x.Names}
	}
	return v
}

func loadReference(v View) Value {
	v = Deref(v).(View)
	switch t := soltypes.Deref(v.Type()).(type) {
	case soltypes.ArrayType:
		arr, ok := v.(Indexable)
		if !ok {
			return Poison{Reason: "array view is not indexable"}
		}
		n, err := arr.Length()
		if err != nil {
			return Poison{Reason: err.Error()}
		}
		if !n.IsInt64() || n.Int64() > 1<<24 {
			return Poison{Reason: "array too long"}
		}
		elems := make([]Value, n.Int64())
		for i := range elems {
			ev, err := arr.Index(NewInt(int64(i)))
			if err != nil {
				return Poison{Reason: err.Error()}
			}
			elems[i] = Load(ev)
		}
		return Composite{Elems: elems}
	case *soltypes.StructType:
		st, ok := v.(Structured)
		if !ok {
			return Poison{Reason: "struct view has no fields"}
		}
		fields := soltypes.WireFields(t)
		c := Composite{Elems: make([]Value, len(fields)), Names: make([]string, len(fields))}
		for i, f := range fields {
			fv, err := st.Field(f.Name)
			if err != nil {
				return Poison{Reason: err.Error()}
			}
			c.Elems[i] = Load(fv)
			c.Names[i] = f.Name
		}
		return c
	case soltypes.TupleType:
		tv, ok := v.(interface{ Component(int) (View, error) })
		if !ok {
			return Poison{Reason: "tuple view has no components"}
		}
		c := Composite{Elems: make([]Value, len(t.Elems))}
		for i := range t.Elems {
			ev, err := tv.Component(i)
			if err != nil {
				return Poison{Reason: err.Error()}
			}
			c.Elems[i] = Load(ev)
		}
		return c
	}
	return v
}

// Length of any array-like value, views and loaded values alike.
func Length(v Value) (*big.Int, error) {
	v = Deref(v)
	if arr, ok := v.(Indexable); ok {
		return arr.Length()
	}
	switch x := v.(type) {
	case Composite:
		return big.NewInt(int64(len(x.Elems))), nil
	case Bytes:
		return big.NewInt(int64(len(x))), nil
	case FixedBytes:
		return big.NewInt(int64(len(x))), nil
	}
	return nil, errors.Errorf("value %v has no length", v)
}

// index validates an array index against n.
func index(key Value, n *big.Int) (*big.Int, error) {
	i, ok := AsInt(key)
	if !ok {
		return nil, errors.Errorf("non-integer index %v", key)
	}
	if i.Sign() < 0 || i.Cmp(n) >= 0 {
		return nil, ErrOutOfBounds
	}
	return i, nil
}

func bigLen(n int) *big.Int {
	return big.NewInt(int64(n))
}
