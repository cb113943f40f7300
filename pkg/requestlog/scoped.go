package requestlog

// Scoped returns a view of store restricted to one service. Entries logged through the view are
// stamped with the service name.
func Scoped(store ServiceStore, service string) Store {
	return &scoped{store: store, service: service}
}

type scoped struct {
	store   ServiceStore
	service string
}

func (s *scoped) Log(entry *Entry) {
	if entry == nil {
		return
	}
	entry.Service = s.service
	s.store.Log(entry)
}

func (s *scoped) Get(id string) *Entry {
	if entry := s.store.Get(id); entry != nil && entry.Service == s.service {
		return entry
	}
	return nil
}

func (s *scoped) List(filter *Filter) []*Entry {
	f := Filter{}
	if filter != nil {
		f = *filter
	}
	f.Service = s.service
	return s.store.List(&f)
}

func (s *scoped) Clear() {
	s.store.ClearByService(s.service)
}

func (s *scoped) Count() int {
	return s.store.CountByService(s.service)
}
