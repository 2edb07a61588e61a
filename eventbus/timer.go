package eventbus

import "time"

func newTimer(timeoutMS int64) *time.Timer {
	return time.NewTimer(time.Duration(timeoutMS) * time.Millisecond)
}
