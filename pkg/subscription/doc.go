// Package subscription implements the snapshot subscriber protocol.
//
// Consumers subscribe to receive every snapshot the coordinator publishes.
// The subscription system handles priming and latest-wins delivery.
//
// # Priming
//
// When a subscription is established, a priming notification carrying the
// current snapshot is queued immediately, so a new consumer never has to
// wait for the next refresh to render something.
//
// # Latest-Wins Delivery
//
// Each subscription has a single-slot channel. Publishing never blocks: if
// the consumer has not yet taken the previous notification, it is replaced
// by the newer one. A slow consumer therefore skips intermediate snapshots
// but always converges on the newest value. Snapshots are delivered in Seq
// order; an older snapshot never overwrites a newer one.
//
// # Lifecycle
//
// Unsubscribe closes the subscription's channel. Closing the manager closes
// every channel and rejects new subscriptions.
package subscription
