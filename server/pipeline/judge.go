package pipeline

import (
	"strings"

	"github.com/Jatinnn-r/Video-Streaming-Platform/server/model"
)

// Judge decides whether an uploaded video is unsafe. The pipeline doesn't
// care how the decision is made, so a real classifier can be dropped in
// without touching pipeline logic.
type Judge interface {
	IsUnsafe(video *model.Video) bool
}

// KeywordJudge is a stand-in classifier: a video is unsafe if its title
// contains any denylisted term (case-insensitive substring match).
type KeywordJudge struct {
	denylist []string
}

func NewKeywordJudge(denylist []string) *KeywordJudge {
	lowered := make([]string, 0, len(denylist))
	for _, term := range denylist {
		lowered = append(lowered, strings.ToLower(term))
	}
	return &KeywordJudge{denylist: lowered}
}

func (j *KeywordJudge) IsUnsafe(video *model.Video) bool {
	title := strings.ToLower(video.Title)
	for _, term := range j.denylist {
		if strings.Contains(title, term) {
			return true
		}
	}
	return false
}
