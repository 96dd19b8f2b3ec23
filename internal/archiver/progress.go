package archiver

import "sync/atomic"

// Stage indexes the sequential phases of the pipeline.
type Stage int

const (
	StageRooms Stage = iota
	StageTranscripts
	StageUsers
	StageUploads
	StageRender
	StageCompress
	stageCount
)

var stageTitles = [stageCount]string{
	"Fetching room list",
	"Fetching transcripts",
	"Fetching users",
	"Fetching uploads",
	"Creating archive",
	"Compressing archive",
}

const (
	stageNotStarted int32 = iota
	stageInProgress
	stageComplete
)

// StageProgress is the read-only derived view of one started stage.
type StageProgress struct {
	Title      string `json:"title"`
	TotalUnits int64  `json:"totalUnits"`
	DoneUnits  int64  `json:"doneUnits"`
	Done       bool   `json:"done"`
}

// Progress tracks per-stage counters. Workers bump the counters with atomic
// ops; the snapshot path reads them without locking.
type Progress struct {
	status [stageCount]atomic.Int32
	total  [stageCount]atomic.Int64
	done   [stageCount]atomic.Int64
}

func newProgress() *Progress {
	return &Progress{}
}

// start marks a stage in-progress with the given unit count.
func (p *Progress) start(s Stage, totalUnits int64) {
	p.total[s].Store(totalUnits)
	p.done[s].Store(0)
	p.status[s].Store(stageInProgress)
}

// unitDone bumps the stage's completed-unit counter.
func (p *Progress) unitDone(s Stage) {
	p.done[s].Add(1)
}

// complete marks a stage finished.
func (p *Progress) complete(s Stage) {
	p.status[s].Store(stageComplete)
}

// Finished reports whether the terminal stage has completed.
func (p *Progress) Finished() bool {
	return p.status[StageCompress].Load() == stageComplete
}

// Snapshot returns one tuple per stage that has started, in pipeline order.
func (p *Progress) Snapshot() []StageProgress {
	var out []StageProgress
	for s := Stage(0); s < stageCount; s++ {
		status := p.status[s].Load()
		if status == stageNotStarted {
			continue
		}
		total := p.total[s].Load()
		done := p.done[s].Load()
		out = append(out, StageProgress{
			Title:      stageTitles[s],
			TotalUnits: total,
			DoneUnits:  done,
			Done:       status == stageComplete,
		})
	}
	return out
}
