// Package ir provides the plain value model shared by every sharedoc package.
//
// # Overview
//
// A Node is a recursive tagged union. The Type field selects which of the
// other fields carry the value:
//
//   - NullType: no payload
//   - BoolType: Bool
//   - NumberType: Int64, Float64, or Number as a string fallback
//   - StringType: String
//   - BinaryType: Bytes, an opaque blob
//   - ArrayType: Values, in order
//   - ObjectType: Fields[i] is the key for Values[i], in insertion order
//
// Nodes are plain data: they are never attached to a replicated document.
// The crdt and project packages convert between Nodes and replicated
// containers.
//
// # Creating Nodes
//
//	obj := ir.FromKeyVals([]ir.KeyVal{
//	    {Key: "name", Val: ir.FromString("peter")},
//	    {Key: "count", Val: ir.FromInt(3)},
//	})
//	arr := ir.FromSlice([]*ir.Node{ir.FromInt(1), ir.FromInt(2)})
//
// Values from arbitrary Go data go through FromAny, which rejects kinds
// outside the sum type with ErrUnsupportedType. FromJSON and ToJSON preserve
// object key order.
//
// # Dispatch
//
// Code that inspects a Node switches on Type and handles every member of
// Types(). Validate reports the first node whose Type is not a member.
//
// # Thread Safety
//
// Nodes are not thread-safe. Clone a node before handing it to another
// goroutine.
package ir
