package engine

import (
	"testing"
	"testing/synctest"
	"time"
)

func TestNewSubscription_ChannelsReadable(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		sub := newSubscription()

		sub.sendStatus(StatusChange{Previous: StatusNone, Current: StatusPlaying})
		sub.sendProgress(ProgressChange{Position: 30 * time.Second, Duration: time.Minute})

		e := <-sub.StatusChanged
		if e.Current != StatusPlaying {
			t.Errorf("StatusChanged.Current = %v, want playing", e.Current)
		}

		p := <-sub.ProgressChanged
		if p.Position != 30*time.Second {
			t.Errorf("ProgressChanged.Position = %v, want 30s", p.Position)
		}
	})
}

func TestSubscription_Close_SignalsDone(t *testing.T) {
	synctest.Test(t, func(_ *testing.T) {
		sub := newSubscription()
		sub.close()
		<-sub.Done
	})
}

func TestSubscription_NonBlocking_DropsWhenFull(t *testing.T) {
	sub := newSubscription()

	// Fill buffer
	for range eventBufferSize + 5 {
		sub.sendStatus(StatusChange{})
	}

	// Should not block or panic - count what we got
	count := 0
	for {
		select {
		case <-sub.StatusChanged:
			count++
		default:
			goto done
		}
	}
done:
	if count != eventBufferSize {
		t.Errorf("received %d events, want %d (buffer size)", count, eventBufferSize)
	}
}

func TestSubscribers_Broadcast(t *testing.T) {
	var subs subscribers
	a := subs.add()
	b := subs.add()

	subs.broadcastStatus(StatusChange{Current: StatusPaused})

	for _, sub := range []*Subscription{a, b} {
		select {
		case e := <-sub.StatusChanged:
			if e.Current != StatusPaused {
				t.Errorf("Current = %v, want paused", e.Current)
			}
		default:
			t.Error("subscriber did not receive broadcast")
		}
	}
}

func TestSubscribers_Remove(t *testing.T) {
	var subs subscribers
	a := subs.add()
	b := subs.add()

	subs.remove(a)
	subs.broadcastStatus(StatusChange{Current: StatusPlaying})

	select {
	case <-a.Done:
	default:
		t.Error("removed subscription's Done not closed")
	}
	select {
	case <-a.StatusChanged:
		t.Error("removed subscription still receives broadcasts")
	default:
	}
	select {
	case <-b.StatusChanged:
	default:
		t.Error("remaining subscription missed the broadcast")
	}

	// Removing twice, or after closeAll, is harmless.
	subs.remove(a)
	subs.closeAll()
	subs.remove(b)
}

func TestSubscribers_CloseAll(t *testing.T) {
	var subs subscribers
	a := subs.add()
	subs.closeAll()

	select {
	case <-a.Done:
	default:
		t.Error("Done not closed")
	}
}
