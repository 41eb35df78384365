package notify

import "testing"

type recorder struct {
	broadcasts []string
	direct     []string
}

func (r *recorder) Broadcast(event, payload string) {
	r.broadcasts = append(r.broadcasts, event+":"+payload)
}

func (r *recorder) SendTo(clientID, event, payload string) {
	r.direct = append(r.direct, clientID+":"+event+":"+payload)
}

func TestFanout(t *testing.T) {
	hub := &recorder{}
	mirror := &recorder{}
	f := NewFanout(hub, mirror)

	f.Broadcast("server-msg", "hello")
	f.SendTo("c1", "captureFailed", "boom")

	if len(hub.broadcasts) != 1 || hub.broadcasts[0] != "server-msg:hello" {
		t.Errorf("Hub broadcasts = %v", hub.broadcasts)
	}
	if len(mirror.broadcasts) != 1 || mirror.broadcasts[0] != "server-msg:hello" {
		t.Errorf("Mirror broadcasts = %v", mirror.broadcasts)
	}
	if len(hub.direct) != 1 || hub.direct[0] != "c1:captureFailed:boom" {
		t.Errorf("Hub direct = %v", hub.direct)
	}
	if len(mirror.direct) != 0 {
		t.Errorf("Mirror must not receive direct messages, got %v", mirror.direct)
	}
}
