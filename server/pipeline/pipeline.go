package pipeline

import (
	"time"

	"github.com/Jatinnn-r/Video-Streaming-Platform/server/eventhub"
	"github.com/Jatinnn-r/Video-Streaming-Platform/server/model"
	"github.com/cyclopcam/logs"
	"gorm.io/gorm"
)

// Progress milestones before the terminal step. The terminal step itself
// writes 100 together with the final status.
var milestones = []int{0, 25, 50, 75}

// Pipeline runs one background classification task per uploaded video.
// Tasks are independent of each other; the only shared state is the DB
// (one row per video) and the event hub.
type Pipeline struct {
	log          logs.Log
	db           *gorm.DB
	hub          *eventhub.Hub
	judge        Judge
	stepInterval time.Duration
	sleep        func(time.Duration) // swapped out by tests so they don't wait on the wall clock
}

func NewPipeline(log logs.Log, db *gorm.DB, hub *eventhub.Hub, judge Judge, stepInterval time.Duration) *Pipeline {
	return &Pipeline{
		log:          log,
		db:           db,
		hub:          hub,
		judge:        judge,
		stepInterval: stepInterval,
		sleep:        time.Sleep,
	}
}

// Start schedules the classification task for video, and returns immediately.
// Callers observe the task's progress via the event hub, or by re-reading
// the video record.
func (p *Pipeline) Start(video *model.Video) {
	go p.run(video)
}

// run walks the video through progress 0, 25, 50, 75, then judges it and
// writes the terminal state. Milestone 0 is written as soon as the task
// starts; every later step waits one stepInterval first.
//
// If a DB write fails, we log and halt this task only. No retries, no
// rollback of earlier milestones: the record stays at its last successfully
// written progress, visible to anyone who queries it.
func (p *Pipeline) run(video *model.Video) {
	for i, m := range milestones {
		if i > 0 {
			p.sleep(p.stepInterval)
		}
		if err := p.setProgress(video.ID, m); err != nil {
			p.log.Errorf("Classify %v: failed to persist progress %v: %v. Halting.", video.ID, m, err)
			return
		}
		p.hub.Publish(eventhub.NewProgressEvent(video.ID, m))
	}
	p.sleep(p.stepInterval)

	status := model.VideoStatusSafe
	if p.judge.IsUnsafe(video) {
		status = model.VideoStatusFlagged
	}

	// Single UPDATE statement, so no reader can ever observe progress=100
	// with status still pending.
	err := p.db.Model(&model.Video{}).Where("id = ?", video.ID).
		Updates(map[string]any{"progress": 100, "status": string(status)}).Error
	if err != nil {
		p.log.Errorf("Classify %v: failed to persist final status: %v. Halting.", video.ID, err)
		return
	}
	p.hub.Publish(eventhub.NewStatusEvent(video.ID, status))
	p.hub.Publish(eventhub.NewProgressEvent(video.ID, 100))
	p.log.Infof("Video %v classified: %v", video.ID, status)
}

func (p *Pipeline) setProgress(videoID int64, progress int) error {
	return p.db.Model(&model.Video{}).Where("id = ?", videoID).Update("progress", progress).Error
}
