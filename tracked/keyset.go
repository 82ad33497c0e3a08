package tracked

// keySet is an insertion-ordered set of keys.
type keySet struct {
	order []string
	index map[string]struct{}
}

func (s *keySet) add(key string) {
	if s.index == nil {
		s.index = make(map[string]struct{})
	}
	if _, ok := s.index[key]; ok {
		return
	}
	s.index[key] = struct{}{}
	s.order = append(s.order, key)
}

func (s *keySet) remove(key string) {
	if _, ok := s.index[key]; !ok {
		return
	}
	delete(s.index, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *keySet) has(key string) bool {
	_, ok := s.index[key]
	return ok
}

func (s *keySet) list() []string {
	if len(s.order) == 0 {
		return nil
	}
	return append([]string(nil), s.order...)
}

func (s *keySet) clear() {
	s.order = nil
	s.index = nil
}
