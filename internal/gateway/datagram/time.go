package datagram

import (
	"context"
	"time"
)

func nowMs() int64 { return time.Now().UnixMilli() }

// deadlineFromCtx returns a short read deadline so the receive loop polls
// ctx.Done() regularly instead of blocking forever on conn.Read.
func deadlineFromCtx(ctx context.Context) time.Time {
	poll := time.Now().Add(200 * time.Millisecond)
	if dl, ok := ctx.Deadline(); ok && dl.Before(poll) {
		return dl
	}
	return poll
}
