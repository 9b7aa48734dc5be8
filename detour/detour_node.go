package detour

import (
	"container/heap"
)

const (
	DT_NODE_OPEN            = 0x01
	DT_NODE_CLOSED          = 0x02
	DT_NODE_PARENT_DETACHED = 0x04 // parent of the node is not adjacent. Found using raycast.
)

type DtNodeIndex uint32

const DT_NULL_IDX = ^DtNodeIndex(0)

const (
	DT_NODE_PARENT_BITS    = 24
	DT_NODE_STATE_BITS     = 2
	DT_MAX_STATES_PER_NODE = 1 << DT_NODE_STATE_BITS // number of extra states per node. See DtNode::state
)

type DtNode struct {
	Pos   [3]float32 ///< Position of the node.
	Cost  float32    ///< Cost from previous node to current node.
	Total float32    ///< Cost up to the node.
	Pidx  uint32     ///< Index to parent node, 0 for none.
	State uint32     ///< extra state information. A polyRef can have multiple nodes with different extra info. see DT_MAX_STATES_PER_NODE
	Flags uint32     ///< Node flags. A combination of DtNodeFlags.
	Id    DtPolyRef  ///< Polygon ref the node corresponds to.

	poolIdx  uint32 // 1 based index in the owning pool
	heapSlot int    // position in the open list, -1 when not queued
}

func dtHashRef(a DtPolyRef) uint32 {
	a += ^(a << 15)
	a ^= a >> 10
	a += a << 3
	a ^= a >> 6
	a += ^(a << 11)
	a ^= a >> 16
	return uint32(a)
}

type DtNodePool struct {
	nodes     []DtNode
	first     []DtNodeIndex
	next      []DtNodeIndex
	maxNodes  int32
	hashSize  int32
	nodeCount int32
}

func NewDtNodePool(maxNodes, hashSize int32) *DtNodePool {
	p := &DtNodePool{
		maxNodes: maxNodes,
		hashSize: hashSize,
		nodes:    make([]DtNode, maxNodes),
		next:     make([]DtNodeIndex, maxNodes),
		first:    make([]DtNodeIndex, hashSize),
	}
	p.Clear()
	return p
}

func (p *DtNodePool) Clear() {
	for i := range p.first {
		p.first[i] = DT_NULL_IDX
	}
	p.nodeCount = 0
}

// / Returns the 1 based index of node, 0 for nil.
func (p *DtNodePool) GetNodeIdx(node *DtNode) uint32 {
	if node == nil {
		return 0
	}
	return node.poolIdx
}

func (p *DtNodePool) GetNodeAtIdx(idx uint32) *DtNode {
	if idx == 0 {
		return nil
	}
	return &p.nodes[idx-1]
}

func (p *DtNodePool) GetMaxNodes() int32  { return p.maxNodes }
func (p *DtNodePool) GetHashSize() int32  { return p.hashSize }
func (p *DtNodePool) GetNodeCount() int32 { return p.nodeCount }

// / Collects up to maxNodes nodes of every state that belong to id.
func (p *DtNodePool) FindNodes(id DtPolyRef, maxNodes int) (nodes []*DtNode) {
	bucket := dtHashRef(id) & uint32(p.hashSize-1)
	for i := p.first[bucket]; i != DT_NULL_IDX; i = p.next[i] {
		if p.nodes[i].Id == id {
			if len(nodes) >= maxNodes {
				return nodes
			}
			nodes = append(nodes, &p.nodes[i])
		}
	}
	return nodes
}

func (p *DtNodePool) FindNode(id DtPolyRef, state uint32) *DtNode {
	bucket := dtHashRef(id) & uint32(p.hashSize-1)
	for i := p.first[bucket]; i != DT_NULL_IDX; i = p.next[i] {
		if p.nodes[i].Id == id && p.nodes[i].State == state {
			return &p.nodes[i]
		}
	}
	return nil
}

// / Returns the node for (id, state), allocating a fresh one when missing.
// / Returns nil when the pool is exhausted.
func (p *DtNodePool) GetNode(id DtPolyRef, state uint32) *DtNode {
	if node := p.FindNode(id, state); node != nil {
		return node
	}
	if p.nodeCount >= p.maxNodes {
		return nil
	}
	bucket := dtHashRef(id) & uint32(p.hashSize-1)
	i := DtNodeIndex(p.nodeCount)
	p.nodeCount++

	// Init node
	p.nodes[i] = DtNode{
		Id:       id,
		State:    state,
		poolIdx:  uint32(i) + 1,
		heapSlot: -1,
	}
	p.next[i] = p.first[bucket]
	p.first[bucket] = i
	return &p.nodes[i]
}

// openList orders nodes by total cost.
type openList []*DtNode

func (q openList) Len() int           { return len(q) }
func (q openList) Less(i, j int) bool { return q[i].Total < q[j].Total }
func (q openList) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].heapSlot = i
	q[j].heapSlot = j
}
func (q *openList) Push(x any) {
	n := x.(*DtNode)
	n.heapSlot = len(*q)
	*q = append(*q, n)
}
func (q *openList) Pop() any {
	old := *q
	n := old[len(old)-1]
	old[len(old)-1] = nil
	n.heapSlot = -1
	*q = old[:len(old)-1]
	return n
}

// / A priority queue of search nodes with the cheapest total on top.
type DtNodeQueue struct {
	heap openList
}

func NewDtNodeQueue(capacity int) *DtNodeQueue {
	return &DtNodeQueue{heap: make(openList, 0, capacity)}
}

func (q *DtNodeQueue) Clear() {
	for _, n := range q.heap {
		n.heapSlot = -1
	}
	q.heap = q.heap[:0]
}

func (q *DtNodeQueue) Top() *DtNode { return q.heap[0] }

func (q *DtNodeQueue) Pop() *DtNode { return heap.Pop(&q.heap).(*DtNode) }

func (q *DtNodeQueue) Push(node *DtNode) { heap.Push(&q.heap, node) }

// / Restores the heap order after the total of a queued node changed.
func (q *DtNodeQueue) Modify(node *DtNode) {
	if node.heapSlot >= 0 {
		heap.Fix(&q.heap, node.heapSlot)
	}
}

func (q *DtNodeQueue) Empty() bool { return len(q.heap) == 0 }
