// Package scope implements insertion-ordered maps and the scope chains
// built from them.
//
// # Maps
//
// A [Map] stores key/value pairs and enumerates its keys in the order they
// were first inserted. Every entry is reachable both by key ([Map.Get],
// [Map.Set], [Map.Delete]) and by attribute name ([Map.Attr],
// [Map.SetAttr], [Map.DelAttr]). Both styles share one storage and one
// ordering; they differ only in the error a read of a missing name
// reports: [ErrKeyNotFound] from [Map.Get] and [ErrAttributeNotFound] from
// [Map.Attr]. Deletes report [ErrKeyNotFound] either way.
//
//	m := scope.New(scope.KV("b", 1), scope.KV("a", 2))
//	m.Keys() // [b a]
//
// # Scopes
//
// A [Scope] is a Map whose reads fall back to a parent. The parent is
// stored under the reserved key [ParentKey] ("_"), so the chain is ordinary
// data: it can be rendered, replaced, or removed like any other entry.
//
//	root := scope.NewScope(scope.KV("x", 1))
//	child := root.Child(scope.KV("y", 2))
//	child.Get("x") // 1, from root
//
// Names reserved by [IsReserved] never fall back. Writes and deletes always
// act on the scope they are called on.
//
// # Serialization
//
// [Decode] and [Encode] convert between containers and YAML, JSON, or
// bencode documents, preserving key order where the format allows it.
// [Chain] links decoded documents into a single scope chain, with later
// documents overriding earlier ones.
package scope
