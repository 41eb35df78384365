// Package notify fans realtime events out to the browser hub and any
// mirrors such as MQTT.
package notify

// Broadcaster receives events meant for every listener.
type Broadcaster interface {
	Broadcast(event, payload string)
}

// Hub is the browser side, which can also address a single client.
type Hub interface {
	Broadcaster
	SendTo(clientID, event, payload string)
}

// Fanout delivers broadcasts to the hub first and then to every mirror.
// Direct messages only go to the hub.
type Fanout struct {
	hub     Hub
	mirrors []Broadcaster
}

func NewFanout(hub Hub, mirrors ...Broadcaster) *Fanout {
	return &Fanout{hub: hub, mirrors: mirrors}
}

func (f *Fanout) Broadcast(event, payload string) {
	f.hub.Broadcast(event, payload)
	for _, m := range f.mirrors {
		m.Broadcast(event, payload)
	}
}

func (f *Fanout) SendTo(clientID, event, payload string) {
	f.hub.SendTo(clientID, event, payload)
}
