package gitprovider

import "sync"

// repoLocks maps absolute repository roots to the mutex serializing their
// checkout, stage and commit sequences.
var repoLocks sync.Map

func repoLock(root string) *sync.Mutex {
	l, _ := repoLocks.LoadOrStore(root, &sync.Mutex{})
	return l.(*sync.Mutex)
}
