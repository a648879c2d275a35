package buggy

import (
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/buggy.go/pkg/l0/comm"
	"github.com/robotalks/buggy.go/pkg/status"
)

// Links fans status lines out to every attached link that is ready.
type Links struct {
	lock  sync.Mutex
	links map[*comm.Link]struct{}
}

// Add attaches a link and returns the func detaching it.
func (s *Links) Add(link *comm.Link) func() {
	s.lock.Lock()
	if s.links == nil {
		s.links = make(map[*comm.Link]struct{})
	}
	s.links[link] = struct{}{}
	s.lock.Unlock()
	return func() {
		s.lock.Lock()
		delete(s.links, link)
		s.lock.Unlock()
	}
}

// Len returns the number of attached links.
func (s *Links) Len() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.links)
}

// Emit implements status.Sink. A failing link does not block the others.
func (s *Links) Emit(l status.Line) error {
	s.lock.Lock()
	links := make([]*comm.Link, 0, len(s.links))
	for link := range s.links {
		links = append(links, link)
	}
	s.lock.Unlock()
	for _, link := range links {
		if !link.Ready() {
			continue
		}
		if err := link.WriteLine(l.Text); err != nil {
			glog.Warningf("buggy: write %s: %v", link.Name(), err)
		}
	}
	return nil
}
