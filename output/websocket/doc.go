// Package websocket provides the WebSocket sink: an embedded server that
// broadcasts paced events to every connected client as they leave the
// pipeline.
//
// # Protocol
//
// Clients connect to ws://host:port/path and receive one JSON text message
// per paced event, in the canonical wire format:
//
//	{"t": 1743501600500000, "data": {...}}
//
// Delivery is at-most-once. A client that cannot keep up with the replay
// rate is disconnected rather than allowed to stall the broadcast; the
// pacing clock belongs to the pipeline, not to the slowest consumer.
//
// The server answers pings and sends its own on an interval so half-open
// connections are reaped.
package websocket
