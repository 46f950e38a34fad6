package abi

import (
	"bytes"
	"math/big"

	"github.com/annchain/solinterp/vm/soltypes"
	"github.com/annchain/solinterp/vm/values"
	"github.com/pkg/errors"
)

// Target is where decoded reference values are materialized. Mem may be nil,
// in which case memory-located values are returned fully loaded instead.
type Target struct {
	Mem   *values.Memory
	Store *values.Store
}

// Views builds one calldata view per argument of a tuple starting at base.
func Views(data []byte, types []soltypes.Type, base int) []*values.CalldataView {
	views := make([]*values.CalldataView, len(types))
	off := base
	for i, t := range types {
		vt := viewType(t)
		views[i] = values.NewCalldataView(data, base, off, vt)
		off += soltypes.HeadSize(ToABIEncodedType(vt))
	}
	return views
}

// Decode reads a tuple of the given types from data at base. Undecodable parts
// come back as values.Poison; the error is reserved for materialization failures.
func Decode(data []byte, types []soltypes.Type, base int, target Target) ([]values.Value, error) {
	views := Views(data, types, base)
	out := make([]values.Value, len(types))
	for i, t := range types {
		v, err := materialize(t, views[i], target)
		if err != nil {
			return nil, errors.Wrapf(err, "argument %d", i)
		}
		out[i] = v
	}
	return out, nil
}

func materialize(t soltypes.Type, view *values.CalldataView, target Target) (values.Value, error) {
	loaded := values.Load(view)
	if values.HasPoison(loaded) {
		return loaded, nil
	}
	p, isPointer := t.(soltypes.PointerType)
	if !isPointer {
		if !soltypes.IsReferenceType(t) {
			return loaded, nil
		}
		p = soltypes.PointerType{To: t, Location: soltypes.Memory}
	}
	switch p.Location {
	case soltypes.Storage:
		slot, ok := values.AsInt(loaded)
		if !ok {
			return values.Poison{Reason: "storage reference is not an integer"}, nil
		}
		if target.Store == nil {
			return nil, errors.New("no storage to bind a storage reference to")
		}
		return values.NewStorageView(target.Store, slot, 0, p.To), nil
	case soltypes.CallData:
		return view, nil
	}
	if target.Mem == nil {
		return loaded, nil
	}
	return target.Mem.Allocate(p.To, loaded)
}

// DecodesWithSelector returns the decoded arguments when data starts with sel
// and every argument decodes cleanly.
func DecodesWithSelector(sel [4]byte, data []byte, types []soltypes.Type, target Target) ([]values.Value, bool) {
	if len(data) < 4 || !bytes.Equal(data[:4], sel[:]) {
		return nil, false
	}
	vals, err := Decode(data[4:], types, 0, target)
	if err != nil {
		return nil, false
	}
	for _, v := range vals {
		if values.HasPoison(v) {
			return nil, false
		}
	}
	return vals, true
}

// DecodeRevert classifies a revert payload as Error(string), Panic(uint256) or raw bytes.
func DecodeRevert(data []byte) (message []byte, code *big.Int, ok bool) {
	if vals, ok := DecodesWithSelector(ErrorSelector, data, []soltypes.Type{soltypes.String}, Target{}); ok {
		b, _ := values.AsBytes(vals[0])
		return b, nil, true
	}
	if vals, ok := DecodesWithSelector(PanicSelector, data, []soltypes.Type{soltypes.Uint256}, Target{}); ok {
		n, _ := values.AsInt(vals[0])
		return nil, n, true
	}
	return nil, nil, false
}
