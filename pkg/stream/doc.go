// Package stream provides a hot, replay-latest value stream.
//
// A Latest holds one current value. Every subscriber immediately receives that
// value and then every later published value, in publish order. Publishing never
// blocks: when a subscriber falls behind and its buffer is full, its oldest
// pending value is dropped so the most recent one is always delivered.
//
// Basic usage:
//
//	current := stream.NewLatest("idle", 8)
//	defer current.Close()
//
//	sub := current.Subscribe(ctx)
//	defer sub.Close()
//
//	current.Publish("running")
//
//	for v := range sub.C() {
//		fmt.Println(v) // "idle", then "running"
//	}
package stream
