package dialogue

// testStore 测试用的最简 CheckpointStore，记录每次写入
type testStore struct {
	globals  map[[2]string]bool
	locals   map[[3]string]bool
	progress map[Key]Progress

	saves []Progress // SaveDialogueProgress 调用记录
}

func newTestStore() *testStore {
	return &testStore{
		globals:  make(map[[2]string]bool),
		locals:   make(map[[3]string]bool),
		progress: make(map[Key]Progress),
	}
}

func (s *testStore) HasGlobalCheckpoint(sceneID, checkpointID string) bool {
	return s.globals[[2]string{sceneID, checkpointID}]
}

func (s *testStore) SetGlobalCheckpoint(sceneID, checkpointID string) {
	if checkpointID == "" {
		return
	}
	s.globals[[2]string{sceneID, checkpointID}] = true
}

func (s *testStore) HasLocalCheckpoint(sceneID, speakerID, checkpointID string) bool {
	return s.locals[[3]string{sceneID, speakerID, checkpointID}]
}

func (s *testStore) SetLocalCheckpoint(sceneID, speakerID, checkpointID string) {
	if checkpointID == "" {
		return
	}
	s.locals[[3]string{sceneID, speakerID, checkpointID}] = true
}

func (s *testStore) DialogueProgress(sceneID, speakerID, dialogueID string) Progress {
	key := Key{SceneID: sceneID, SpeakerID: speakerID, DialogueID: dialogueID}
	if p, ok := s.progress[key]; ok {
		return p
	}
	return NewProgress(sceneID, speakerID, dialogueID)
}

func (s *testStore) SaveDialogueProgress(p Progress) {
	s.progress[p.Key()] = p
	s.saves = append(s.saves, p)
}

// newTestDialogue 创建测试对话，resumeIDs[i] 为第 i 行的续接点
func newTestDialogue(id string, order int, resumeIDs ...string) *Dialogue {
	d := &Dialogue{
		SceneID:   "wood",
		SpeakerID: "wizard",
		ID:        id,
		Order:     order,
		Kind:      KindStory,
	}
	for i, resume := range resumeIDs {
		d.Lines = append(d.Lines, &Line{
			Index:              i,
			Speaker:            "Wizard",
			Texts:              map[string]string{"en": id + " line"},
			ResumeCheckpointID: resume,
		})
	}
	return d
}

// eventRecorder 记录会话事件顺序
type eventRecorder struct {
	events []string
	lines  []int
}

func (r *eventRecorder) attach(s *Session) {
	s.OnStart(func(*Session) { r.events = append(r.events, "start") })
	s.OnLineChange(func(_ *Session, l *Line) {
		r.events = append(r.events, "line")
		r.lines = append(r.lines, l.Index)
	})
	s.OnEnd(func(*Session) { r.events = append(r.events, "end") })
}

func (r *eventRecorder) count(name string) int {
	n := 0
	for _, e := range r.events {
		if e == name {
			n++
		}
	}
	return n
}
