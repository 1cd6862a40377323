package tracker

import "time"

// notifier calls tick once immediately and then again interval after each
// call returned. It runs until cancel is called.
type notifier struct {
	stop chan struct{}
	done chan struct{}
}

func startNotifier(interval time.Duration, tick func()) *notifier {
	n := &notifier{stop: make(chan struct{}), done: make(chan struct{})}
	go n.run(interval, tick)
	return n
}

func (n *notifier) run(interval time.Duration, tick func()) {
	defer close(n.done)

	tick()
	timer := time.NewTimer(interval)
	defer timer.Stop()
	for {
		select {
		case <-n.stop:
			return
		case <-timer.C:
		}
		// A cancel racing the timer wins.
		select {
		case <-n.stop:
			return
		default:
		}
		tick()
		timer.Reset(interval)
	}
}

// cancel stops the pending timer and waits for a running tick to return.
func (n *notifier) cancel() {
	close(n.stop)
	<-n.done
}
