/*
Package flow implements the conversational flow engine.

A conversation is modeled as a tree of steps. Each node binds a Handler
(the unit of dialogue behavior) to a stable identifier derived from the
path of step keys leading to it. Because identifiers are path-derived,
only the identifier needs to survive between events: the tree is rebuilt
from its Definition on every inbound message or reaction, and the current
node is located by identifier.

A Thread drives one user's traversal of a tree for the duration of a
single inbound event. It loads nothing itself; the surrounding dispatcher
loads the persisted state record, asks the Registry to hydrate a Thread,
and hands it the event. At the end of the turn the Thread writes the new
record back (or deletes it when the flow is complete).
*/
package flow
