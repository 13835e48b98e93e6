// Package redisdown turns Redis into an ordered key/value store with
// LevelDB-style semantics: point reads and writes, atomic batches and
// forward/backward range iteration over raw byte keys.
//
// Components:
//   - Store: one logical store (a location, i.e. key prefix) on a Redis client.
//   - Registry: shares one client between stores with equal connection options
//     and closes it when the last of them closes.
//   - Iterator: paginated cursor over a location's order index.
//   - Typed[K, V]: Store view with keys and values converted by codecs.
//
// Keys:
//
//	<location>$<key>  - record (SET / GET / DEL)
//	<location>:z      - order index (sorted set, every member at score 0)
//
// Every write updates both in one MULTI/EXEC block. Because all index members
// share a score, Redis orders them by raw bytes, so "10" sorts before "2".
// Use Typed with codec.Uint64Key or codec.Int64Key for numeric order.
//
// Usage:
//
//	s, err := redisdown.Open(ctx, "rooms", redisdown.Options{
//	    Conn: redisdown.ConnOptions{Host: "localhost", Port: 6379},
//	})
//	if err != nil { ... }
//	defer s.Close(ctx)
//
//	_ = s.Put(ctx, "rooms:1", "x")
//	it := s.Iterator(redisdown.IteratorOptions{Gte: "rooms:"})
//	defer it.Close()
//	for it.Next(ctx) { ... }
//
// Neither snapshots nor seek are supported. Destroy removes the order index
// only; records stay reachable through Get.
package redisdown
