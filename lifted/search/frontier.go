package search

import "container/heap"

// Node is a scheduling record: accumulated cost, heuristic estimate and the
// identity of the state it stands for
type Node struct {
	G  int
	H  int
	ID int
}

// Before reports whether n is expanded ahead of m: lower heuristic first,
// then lower accumulated cost
func (n Node) Before(m Node) bool {
	if n.H != m.H {
		return n.H < m.H
	}
	return n.G < m.G
}

type entry struct {
	node Node
	seq  int // insertion order, breaks remaining ties FIFO
}

type nodeHeap []entry

func (h nodeHeap) Len() int { return len(h) }

func (h nodeHeap) Less(i, j int) bool {
	if h[i].node.Before(h[j].node) {
		return true
	}
	if h[j].node.Before(h[i].node) {
		return false
	}
	return h[i].seq < h[j].seq
}

func (h nodeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *nodeHeap) Push(x interface{}) { *h = append(*h, x.(entry)) }

func (h *nodeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// Frontier is the open list of greedy best-first search
type Frontier struct {
	heap nodeHeap
	seq  int
}

// NewFrontier creates an empty frontier
func NewFrontier() *Frontier {
	return &Frontier{}
}

// Push schedules a node
func (f *Frontier) Push(n Node) {
	heap.Push(&f.heap, entry{node: n, seq: f.seq})
	f.seq++
}

// Pop removes and returns the best node. It must not be called on an empty frontier.
func (f *Frontier) Pop() Node {
	return heap.Pop(&f.heap).(entry).node
}

// Len returns the number of scheduled nodes
func (f *Frontier) Len() int {
	return f.heap.Len()
}
