// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package hub is the broadcast layer between the poll engine and connected clients.

Each connection subscribes under its connection id and receives events on a
buffered channel:

	c := h.Subscribe(connID)
	defer h.Unsubscribe(connID)
	for ev := range c.Send {
		// write ev to the socket
	}

Publish reaches every subscriber; SendTo reaches exactly one. Sends never
block: when a subscriber's buffer is full the event is dropped and logged, so
a slow client cannot stall the timer or other clients. Clients that miss
events recover through the poll state endpoint.
*/
package hub
