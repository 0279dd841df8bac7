// Package discovery enumerates entity directories below a starting path.
//
// Every directory visited is in one of three states: labeled (it carries a
// marker), pass-through (unmarked but named exports or scenes) or pruned
// (unmarked, any other name). The walk descends into labeled and
// pass-through directories and never below a pruned one, so stray folders
// such as scratch/ neither appear in results nor contribute descendants.
//
// Walk returns a lazy, restartable iter.Seq2. Read failures in one subtree
// are yielded as ErrPartial warnings and the walk carries on with the rest
// of the tree. Asset versions are not walked as their own marker kind; they
// are expanded from discovered assets by ExpandVersions.
package discovery
