package internal

// ScopeStack is an ordered stack of variable frames. Lookups walk from the
// innermost (most recently pushed) frame outwards; writes go to the innermost
// frame only.
type ScopeStack struct {
	frames []map[string]any
}

// NewScopeStack creates a stack holding a single root frame. The root frame
// is a shallow copy of data, so writes never reach the caller's map.
func NewScopeStack(data map[string]any) *ScopeStack {
	root := make(map[string]any, len(data))
	for k, v := range data {
		root[k] = v
	}
	return &ScopeStack{frames: []map[string]any{root}}
}

// Push adds a new innermost frame.
func (s *ScopeStack) Push(frame map[string]any) {
	if frame == nil {
		frame = make(map[string]any)
	}
	s.frames = append(s.frames, frame)
}

// Pop removes the innermost frame. The root frame is never removed;
// Pop reports false when only the root frame is left.
func (s *ScopeStack) Pop() bool {
	if len(s.frames) <= 1 {
		return false
	}
	s.frames[len(s.frames)-1] = nil
	s.frames = s.frames[:len(s.frames)-1]
	return true
}

// Set binds key in the innermost frame.
func (s *ScopeStack) Set(key string, value any) {
	s.frames[len(s.frames)-1][key] = value
}

// Lookup returns the value bound to key in the innermost frame defining it.
func (s *ScopeStack) Lookup(key string) (any, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if v, ok := s.frames[i][key]; ok {
			return v, true
		}
	}
	return nil, false
}

// Depth returns the number of frames, root included.
func (s *ScopeStack) Depth() int {
	return len(s.frames)
}

// Keys returns every visible variable name, innermost frames first, without
// duplicates.
func (s *ScopeStack) Keys() []string {
	seen := make(map[string]struct{})
	var keys []string
	for i := len(s.frames) - 1; i >= 0; i-- {
		for k := range s.frames[i] {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	return keys
}
