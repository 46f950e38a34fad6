package values

import (
	"math/big"

	"github.com/annchain/solinterp/common/math"
	"github.com/annchain/solinterp/vm/soltypes"
	"github.com/pkg/errors"
)

const (
	// FreePointerStart is the first address handed out by the allocator.
	FreePointerStart = 0x80
	maxMemory        = 1 << 32
)

// Memory is the linear, word-addressed scratch area of one execution. Every
// value-typed element takes a word, reference-typed members hold a pointer
// word, and dynamic arrays and byte sequences are prefixed by their length.
type Memory struct {
	data      []byte
	free      uint64
	Functions FunctionTable
}

func NewMemory() *Memory {
	return &Memory{data: make([]byte, FreePointerStart), free: FreePointerStart}
}

// FreePointer is the next address the allocator will return.
func (m *Memory) FreePointer() uint64 { return m.free }

func (m *Memory) Len() int { return len(m.data) }

// Alloc reserves size bytes rounded up to whole words.
func (m *Memory) Alloc(size uint64) (uint64, error) {
	size = (size + soltypes.SlotSize - 1) / soltypes.SlotSize * soltypes.SlotSize
	if m.free+size > maxMemory {
		return 0, ErrAllocation
	}
	off := m.free
	m.free += size
	m.grow(m.free)
	return off, nil
}

func (m *Memory) grow(end uint64) {
	if end > uint64(len(m.data)) {
		m.data = append(m.data, make([]byte, end-uint64(len(m.data)))...)
	}
}

// Read returns n bytes at off. Bytes past the end of memory read as zero.
func (m *Memory) Read(off, n uint64) []byte {
	out := make([]byte, n)
	if off < uint64(len(m.data)) {
		copy(out, m.data[off:])
	}
	return out
}

func (m *Memory) Write(off uint64, b []byte) {
	m.grow(off + uint64(len(b)))
	copy(m.data[off:], b)
}

func (m *Memory) word(off uint64) []byte {
	return m.Read(off, soltypes.SlotSize)
}

func (m *Memory) wordInt(off uint64) uint64 {
	v := new(big.Int).SetBytes(m.word(off))
	if !v.IsUint64() || v.Uint64() > maxMemory {
		return maxMemory
	}
	return v.Uint64()
}

// Allocate copies val into a freshly allocated object of type t.
func (m *Memory) Allocate(t soltypes.Type, val Value) (*MemoryView, error) {
	t = soltypes.Deref(t)
	val = Load(val)
	switch x := t.(type) {
	case soltypes.BytesType, soltypes.StringType:
		b, ok := AsBytes(val)
		if !ok {
			return nil, errors.Errorf("cannot allocate %v as %s", val, t)
		}
		off, err := m.Alloc(soltypes.SlotSize + uint64(len(b)))
		if err != nil {
			return nil, err
		}
		m.Write(off, math.ToWord(big.NewInt(int64(len(b)))))
		m.Write(off+soltypes.SlotSize, b)
		return &MemoryView{Mem: m, Off: off, Typ: t}, nil
	case soltypes.ArrayType:
		c, ok := val.(Composite)
		if !ok {
			return nil, errors.Errorf("cannot allocate %v as %s", val, t)
		}
		if !x.Dynamic() && x.Size.Cmp(big.NewInt(int64(len(c.Elems)))) != 0 {
			return nil, errors.Errorf("array %s expects %s elements, got %d", t, x.Size, len(c.Elems))
		}
		header := uint64(0)
		if x.Dynamic() {
			header = 1
		}
		off, err := m.Alloc(soltypes.SlotSize * (header + uint64(len(c.Elems))))
		if err != nil {
			return nil, err
		}
		if x.Dynamic() {
			m.Write(off, math.ToWord(big.NewInt(int64(len(c.Elems)))))
		}
		for i, e := range c.Elems {
			if err := m.writeSlot(off+soltypes.SlotSize*(header+uint64(i)), x.Elem, e); err != nil {
				return nil, err
			}
		}
		return &MemoryView{Mem: m, Off: off, Typ: t}, nil
	case *soltypes.StructType:
		c, ok := val.(Composite)
		fields := soltypes.WireFields(x)
		if !ok || len(c.Elems) != len(fields) {
			return nil, errors.Errorf("cannot allocate %v as %s", val, t)
		}
		off, err := m.Alloc(soltypes.SlotSize * uint64(len(fields)))
		if err != nil {
			return nil, err
		}
		for i, f := range fields {
			if err := m.writeSlot(off+soltypes.SlotSize*uint64(i), f.Type, c.Elems[i]); err != nil {
				return nil, err
			}
		}
		return &MemoryView{Mem: m, Off: off, Typ: t}, nil
	}
	off, err := m.Alloc(soltypes.SlotSize)
	if err != nil {
		return nil, err
	}
	view := &MemoryView{Mem: m, Off: off, Typ: t}
	return view, view.Encode(val)
}

func (m *Memory) writeSlot(addr uint64, t soltypes.Type, val Value) error {
	if soltypes.IsValueType(t) {
		w, err := Word(t, val)
		if err != nil {
			return err
		}
		m.Write(addr, w)
		return nil
	}
	obj, err := m.Allocate(t, val)
	if err != nil {
		return err
	}
	m.Write(addr, math.ToWord(new(big.Int).SetUint64(obj.Off)))
	return nil
}

// MemoryView is a location in memory. A PointerType view is a word holding the
// address of another object; any other reference-typed view addresses the object itself.
type MemoryView struct {
	Mem *Memory
	Off uint64
	Typ soltypes.Type
}

func (v *MemoryView) isValue() {}

func (v *MemoryView) Type() soltypes.Type { return v.Typ }

func (v *MemoryView) Location() soltypes.DataLocation { return soltypes.Memory }

func (v *MemoryView) String() string {
	return "memory[" + new(big.Int).SetUint64(v.Off).String() + "]." + v.Typ.String()
}

func (v *MemoryView) isPointer() bool {
	_, ok := v.Typ.(soltypes.PointerType)
	return ok
}

// ToView dereferences a pointer slot. Object views return themselves.
func (v *MemoryView) ToView() View {
	p, ok := v.Typ.(soltypes.PointerType)
	if !ok {
		return v
	}
	return &MemoryView{Mem: v.Mem, Off: v.Mem.wordInt(v.Off), Typ: p.To}
}

func (v *MemoryView) Decode() Value {
	if v.isPointer() {
		return v.ToView().Decode()
	}
	switch v.Typ.(type) {
	case soltypes.BytesType, soltypes.StringType:
		n := v.Mem.wordInt(v.Off)
		if n > 1<<24 {
			return Poison{Reason: "memory bytes too long"}
		}
		return Bytes(v.Mem.Read(v.Off+soltypes.SlotSize, n))
	}
	if soltypes.IsValueType(v.Typ) {
		return FromWord(v.Typ, v.Mem.word(v.Off), false, v.Mem.Functions)
	}
	return v
}

func (v *MemoryView) Encode(val Value) error {
	if p, ok := v.Typ.(soltypes.PointerType); ok {
		if obj, ok := Deref(val).(*MemoryView); ok && obj.Mem == v.Mem && soltypes.Equal(obj.Typ, p.To) {
			v.Mem.Write(v.Off, math.ToWord(new(big.Int).SetUint64(obj.Off)))
			return nil
		}
		return v.Mem.writeSlot(v.Off, p.To, val)
	}
	if soltypes.IsValueType(v.Typ) {
		return v.Mem.writeSlot(v.Off, v.Typ, val)
	}
	if obj, ok := Deref(val).(*MemoryView); ok && obj.Mem == v.Mem && obj.Off == v.Off {
		return nil
	}
	switch t := v.Typ.(type) {
	case soltypes.BytesType, soltypes.StringType:
		b, ok := AsBytes(val)
		if !ok || uint64(len(b)) != v.Mem.wordInt(v.Off) {
			return errors.Errorf("cannot overwrite memory %s with %v", t, val)
		}
		v.Mem.Write(v.Off+soltypes.SlotSize, b)
		return nil
	case soltypes.ArrayType:
		c, ok := Load(val).(Composite)
		n, _ := v.Length()
		if !ok || n.Cmp(big.NewInt(int64(len(c.Elems)))) != 0 {
			return errors.Errorf("cannot overwrite memory %s with %v", t, val)
		}
		for i, e := range c.Elems {
			ev, err := v.Index(NewInt(int64(i)))
			if err != nil {
				return err
			}
			if err := ev.Encode(e); err != nil {
				return err
			}
		}
		return nil
	case *soltypes.StructType:
		c, ok := Load(val).(Composite)
		fields := soltypes.WireFields(t)
		if !ok || len(c.Elems) != len(fields) {
			return errors.Errorf("cannot overwrite memory %s with %v", t, val)
		}
		for i, f := range fields {
			fv, err := v.Field(f.Name)
			if err != nil {
				return err
			}
			if err := fv.Encode(c.Elems[i]); err != nil {
				return err
			}
		}
		return nil
	}
	return errors.Errorf("cannot encode into memory %s", v.Typ)
}

func (v *MemoryView) Length() (*big.Int, error) {
	if v.isPointer() {
		return v.ToView().(*MemoryView).Length()
	}
	switch t := v.Typ.(type) {
	case soltypes.ArrayType:
		if t.Dynamic() {
			return new(big.Int).SetUint64(v.Mem.wordInt(v.Off)), nil
		}
		return new(big.Int).Set(t.Size), nil
	case soltypes.BytesType, soltypes.StringType:
		return new(big.Int).SetUint64(v.Mem.wordInt(v.Off)), nil
	}
	return nil, errors.Errorf("%s has no length", v.Typ)
}

// slotView is the view of the word at addr holding a member of type t.
func (v *MemoryView) slotView(addr uint64, t soltypes.Type) *MemoryView {
	if soltypes.IsValueType(t) {
		return &MemoryView{Mem: v.Mem, Off: addr, Typ: t}
	}
	return &MemoryView{Mem: v.Mem, Off: addr, Typ: soltypes.PointerType{To: soltypes.Deref(t), Location: soltypes.Memory}}
}

func (v *MemoryView) Index(key Value) (View, error) {
	if v.isPointer() {
		return v.ToView().(*MemoryView).Index(key)
	}
	n, err := v.Length()
	if err != nil {
		return nil, err
	}
	i, err := index(key, n)
	if err != nil {
		return nil, err
	}
	switch t := v.Typ.(type) {
	case soltypes.ArrayType:
		base := v.Off
		if t.Dynamic() {
			base += soltypes.SlotSize
		}
		return v.slotView(base+soltypes.SlotSize*i.Uint64(), t.Elem), nil
	case soltypes.BytesType:
		return &ByteIndexView{Parent: v, Index: int(i.Int64())}, nil
	}
	return nil, errors.Errorf("%s is not indexable", v.Typ)
}

func (v *MemoryView) Field(name string) (View, error) {
	if v.isPointer() {
		return v.ToView().(*MemoryView).Field(name)
	}
	st, ok := v.Typ.(*soltypes.StructType)
	if !ok {
		return nil, errors.Errorf("%s has no member %s", v.Typ, name)
	}
	for i, f := range soltypes.WireFields(st) {
		if f.Name == name {
			return v.slotView(v.Off+soltypes.SlotSize*uint64(i), f.Type), nil
		}
	}
	return nil, errors.Errorf("struct %s has no memory member %s", st.Name, name)
}
