package flow

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/hearthlabs/hearth/pkg/domain"
)

// RootID is the identifier of every tree's root node: the hash of the
// empty path. Seeding a state record at RootID positions a conversation
// on its first step.
func RootID() string {
	sum := sha256.Sum256(nil)
	return hex.EncodeToString(sum[:])
}

func childID(parentID string, key domain.StepKey) string {
	sum := sha256.Sum256([]byte(parentID + string(key)))
	return hex.EncodeToString(sum[:])
}

// Node is a tree node binding a Handler to a path-derived identifier and
// to its possible successors. Two trees built independently for the same
// conversation yield identical identifiers for the same path, which is
// what makes persistence-by-identifier possible.
type Node struct {
	handler Handler
	next    []*Node
	prev    *Node
	id      string
}

// NewNode creates an unattached node for the given handler. Until grafted
// under a parent it carries the root identifier.
func NewNode(h Handler) *Node {
	return &Node{handler: h, id: RootID()}
}

// ID returns the node's path-derived identifier.
func (n *Node) ID() string { return n.id }

// Handler returns the step handler bound to this node.
func (n *Node) Handler() Handler { return n.handler }

// Previous returns the parent node, or nil at the root.
func (n *Node) Previous() *Node { return n.prev }

// Successors returns the node's children in declaration order.
func (n *Node) Successors() []*Node { return n.next }

// Append creates a linear child for the handler and returns it, so
// builders can chain: NewNode(a).Append(b).Append(c).
func (n *Node) Append(h Handler) *Node {
	return n.AppendNode(NewNode(h))
}

// AppendNode grafts a built subtree under this node and returns the
// subtree root. Identifiers of the whole subtree are recomputed from the
// new path. Sibling step keys must be unique; a duplicate is a
// programming error in the tree definition and panics at build time.
func (n *Node) AppendNode(child *Node) *Node {
	for _, existing := range n.next {
		if existing.handler.Name() == child.handler.Name() {
			panic(fmt.Sprintf("flow: duplicate successor %q under node %s", child.handler.Name(), n.id))
		}
	}
	child.prev = n
	child.rehash(n.id)
	n.next = append(n.next, child)
	return child
}

// Fork grafts several subtrees under this node and returns the node
// itself. The first child is the default successor.
func (n *Node) Fork(children ...*Node) *Node {
	for _, child := range children {
		n.AppendNode(child)
	}
	return n
}

// rehash recomputes this node's identifier from the parent's and walks the
// subtree so every descendant reflects the new path.
func (n *Node) rehash(parentID string) {
	n.id = childID(parentID, n.handler.Name())
	for _, child := range n.next {
		child.rehash(n.id)
	}
}

// Root walks the parent links back to the tree root, so a builder can
// return the root even after constructing the tree by chaining from a
// leaf.
func (n *Node) Root() *Node {
	node := n
	for node.prev != nil {
		node = node.prev
	}
	return node
}

// Find locates the node with the given identifier by depth-first search,
// or nil when the identifier does not occur in the tree.
func (n *Node) Find(id string) *Node {
	if n.id == id {
		return n
	}
	for _, child := range n.next {
		if found := child.Find(id); found != nil {
			return found
		}
	}
	return nil
}

// First returns the default successor (the first declared child), or nil
// for a terminal node.
func (n *Node) First() *Node {
	if len(n.next) == 0 {
		return nil
	}
	return n.next[0]
}

// Successor resolves a discriminator token against the node's children.
// A missing token is a contract violation between the tree and its
// handlers, not a user mistake.
func (n *Node) Successor(key domain.StepKey) (*Node, error) {
	for _, child := range n.next {
		if child.handler.Name() == key {
			return child, nil
		}
	}
	return nil, fmt.Errorf("%w: %q under step %q", domain.ErrUnknownSuccessor, key, n.handler.Name())
}
