// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package realtime pushes live poll results over websockets.

A Hub keeps a set of subscribers per poll. Broadcast encodes a Message once
and hands the bytes to each subscriber without blocking; a subscriber whose
buffer is full misses that update and catches up on the next one.

Client wraps a gorilla/websocket connection. Run subscribes it, starts the
write pump (messages plus periodic pings) and blocks in the read pump until
the peer goes away:

	client := realtime.NewClient(conn, hub, pollID, log)
	client.Send(realtime.NewMessage(realtime.MsgResults, pollID, result))
	client.Run()

Clients may send {"type":"ping"} and get a pong message back.
*/
package realtime
