package flow

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthlabs/hearth/pkg/domain"
)

type namedStep struct {
	StepBase
	key domain.StepKey
}

func (s *namedStep) Name() domain.StepKey { return s.key }

func step(key domain.StepKey) Handler { return &namedStep{key: key} }

func TestRootID(t *testing.T) {
	sum := sha256.Sum256([]byte(""))
	assert.Equal(t, hex.EncodeToString(sum[:]), RootID())
}

func TestNodeIDsHashTheFullPath(t *testing.T) {
	root := NewNode(step("a"))
	b := root.Append(step("b"))
	c := b.Append(step("c"))

	wantB := sha256.Sum256([]byte(RootID() + "b"))
	assert.Equal(t, hex.EncodeToString(wantB[:]), b.ID())

	wantC := sha256.Sum256([]byte(b.ID() + "c"))
	assert.Equal(t, hex.EncodeToString(wantC[:]), c.ID())
}

func TestIdenticalTreesYieldIdenticalIDs(t *testing.T) {
	build := func() *Node {
		root := NewNode(step("confirm"))
		root.Append(step("emoji")).Fork(
			NewNode(step("yes")),
			NewNode(step("no")),
		)
		return root
	}

	a, b := build(), build()
	assert.Equal(t, a.ID(), b.ID())
	assert.Equal(t, a.First().ID(), b.First().ID())
	for i := range a.First().Successors() {
		assert.Equal(t, a.First().Successors()[i].ID(), b.First().Successors()[i].ID())
	}
}

func TestSameKeyAtDifferentDepthsDiffers(t *testing.T) {
	root := NewNode(step("instr"))
	inner := root.Append(step("accept")).Append(step("instr"))
	assert.NotEqual(t, root.ID(), inner.ID())
}

func TestAppendNodeGraftsAndRehashes(t *testing.T) {
	subtree := NewNode(step("x"))
	leaf := subtree.Append(step("y"))
	beforeX, beforeY := subtree.ID(), leaf.ID()

	root := NewNode(step("root"))
	root.AppendNode(subtree)

	assert.NotEqual(t, beforeX, subtree.ID())
	assert.NotEqual(t, beforeY, leaf.ID())

	wantX := sha256.Sum256([]byte(root.ID() + "x"))
	assert.Equal(t, hex.EncodeToString(wantX[:]), subtree.ID())
}

func TestDuplicateSiblingKeyPanics(t *testing.T) {
	root := NewNode(step("root"))
	root.Append(step("dup"))
	assert.Panics(t, func() { root.Append(step("dup")) })
}

func TestForkFirstChildIsDefault(t *testing.T) {
	root := NewNode(step("root"))
	root.Fork(NewNode(step("yes")), NewNode(step("no")))

	require.Len(t, root.Successors(), 2)
	assert.Equal(t, domain.StepKey("yes"), root.First().Handler().Name())
}

func TestFindLocatesAnyDepth(t *testing.T) {
	root := NewNode(step("a"))
	b := root.Append(step("b"))
	c := NewNode(step("c"))
	d := NewNode(step("d"))
	b.Fork(c, d)

	assert.Same(t, d, root.Find(d.ID()))
	assert.Nil(t, root.Find("not-an-id"))
}

func TestRootWalksBack(t *testing.T) {
	root := NewNode(step("a"))
	leaf := root.Append(step("b")).Append(step("c"))
	assert.Same(t, root, leaf.Root())
}

func TestSuccessorByKey(t *testing.T) {
	root := NewNode(step("root"))
	root.Fork(NewNode(step("yes")), NewNode(step("no")))

	no, err := root.Successor("no")
	require.NoError(t, err)
	assert.Equal(t, domain.StepKey("no"), no.Handler().Name())

	_, err = root.Successor("maybe")
	assert.ErrorIs(t, err, domain.ErrUnknownSuccessor)
}
