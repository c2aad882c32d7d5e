package eventhub

import (
	"sync"
	"time"

	"github.com/Jatinnn-r/Video-Streaming-Platform/server/model"
	"github.com/cyclopcam/logs"
)

// Number of events that we will buffer per subscriber, before dropping
// events to that subscriber.
const SubscriberBufferSize = 64

type EventType string

const (
	EventTypeProgress      EventType = "progress"
	EventTypeStatusChanged EventType = "statusChanged"
)

// Event is a single notification pushed to connected observers.
// Progress events carry VideoID and Progress. StatusChanged events carry
// VideoID and Status (and the final Progress value, which is always 100).
type Event struct {
	Type     EventType         `json:"type"`
	VideoID  int64             `json:"videoId"`
	Progress int               `json:"progress"`
	Status   model.VideoStatus `json:"status,omitempty"`
}

func NewProgressEvent(videoID int64, progress int) Event {
	return Event{
		Type:     EventTypeProgress,
		VideoID:  videoID,
		Progress: progress,
	}
}

func NewStatusEvent(videoID int64, status model.VideoStatus) Event {
	return Event{
		Type:     EventTypeStatusChanged,
		VideoID:  videoID,
		Progress: 100,
		Status:   status,
	}
}

// Subscriber is one connected observer. Read events from C.
// Events published before Subscribe() are never replayed.
type Subscriber struct {
	C chan Event

	hub         *Hub
	nDropped    int64
	lastDropMsg time.Time
}

// Close removes the subscriber from the hub and closes C. Safe to call more than once.
func (s *Subscriber) Close() {
	s.hub.Unsubscribe(s)
}

// Hub is the registry of connected observers, and the fan-out point for
// pipeline events. Publish never blocks: a subscriber that can't keep up
// has events dropped.
type Hub struct {
	log             logs.Log
	subscribersLock sync.Mutex
	subscribers     map[*Subscriber]bool
}

func NewHub(log logs.Log) *Hub {
	return &Hub{
		log:         log,
		subscribers: map[*Subscriber]bool{},
	}
}

func (h *Hub) Subscribe() *Subscriber {
	sub := &Subscriber{
		C:   make(chan Event, SubscriberBufferSize),
		hub: h,
	}
	h.subscribersLock.Lock()
	h.subscribers[sub] = true
	h.subscribersLock.Unlock()
	return sub
}

func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.subscribersLock.Lock()
	defer h.subscribersLock.Unlock()
	if !h.subscribers[sub] {
		return
	}
	delete(h.subscribers, sub)
	close(sub.C)
}

// Publish delivers ev to every currently connected subscriber.
// Delivery to any single subscriber preserves publish order.
func (h *Hub) Publish(ev Event) {
	h.subscribersLock.Lock()
	defer h.subscribersLock.Unlock()
	for sub := range h.subscribers {
		select {
		case sub.C <- ev:
		default:
			sub.nDropped++
			now := time.Now()
			if now.Sub(sub.lastDropMsg) > 5*time.Second {
				h.log.Warnf("Dropped %v events to a slow observer", sub.nDropped)
				sub.lastDropMsg = now
			}
		}
	}
}

func (h *Hub) NumSubscribers() int {
	h.subscribersLock.Lock()
	defer h.subscribersLock.Unlock()
	return len(h.subscribers)
}
