package domain

import "math/rand/v2"

// Queue is a FIFO list of tracks waiting to be played.
// The playing item is not part of the queue.
type Queue struct {
	tracks []*Track
}

// NewQueue creates a new empty Queue.
func NewQueue() Queue {
	return Queue{
		tracks: make([]*Track, 0),
	}
}

// Len returns the number of queued tracks.
func (q *Queue) Len() int {
	return len(q.tracks)
}

// IsEmpty returns true if the queue has no tracks.
func (q *Queue) IsEmpty() bool {
	return q.Len() == 0
}

// List returns a copy of the queued tracks in play order.
func (q *Queue) List() []*Track {
	result := make([]*Track, q.Len())
	copy(result, q.tracks)
	return result
}

// Enqueue appends tracks to the end of the queue.
func (q *Queue) Enqueue(tracks ...*Track) {
	q.tracks = append(q.tracks, tracks...)
}

// PopFront removes and returns the first track, or nil if the queue is empty.
func (q *Queue) PopFront() *Track {
	if q.IsEmpty() {
		return nil
	}
	track := q.tracks[0]
	q.tracks[0] = nil
	q.tracks = q.tracks[1:]
	return track
}

// RemoveAt removes and returns the track at a 1-based position.
func (q *Queue) RemoveAt(position int) (*Track, error) {
	if position < 1 || position > q.Len() {
		return nil, ErrInvalidPosition
	}
	index := position - 1
	track := q.tracks[index]
	q.tracks = append(q.tracks[:index], q.tracks[index+1:]...)
	return track, nil
}

// Clear removes all tracks and returns how many were removed.
func (q *Queue) Clear() int {
	n := q.Len()
	q.tracks = make([]*Track, 0)
	return n
}

// Shuffle randomizes the queue order using shuffle, or math/rand when nil.
func (q *Queue) Shuffle(shuffle func(n int, swap func(i, j int))) {
	if shuffle == nil {
		shuffle = rand.Shuffle
	}
	shuffle(q.Len(), func(i, j int) {
		q.tracks[i], q.tracks[j] = q.tracks[j], q.tracks[i]
	})
}
