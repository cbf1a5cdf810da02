// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cache provides a small in-memory TTL cache.

	c := cache.New[models.PollResult](cache.DefaultCleanupInterval)
	defer c.Close()

	c.Set(pollID, result, 30*time.Second)
	if r, ok := c.Get(pollID); ok {
		// ...
	}

Expired items are never returned by Get. A background janitor removes them
until Close is called.
*/
package cache
