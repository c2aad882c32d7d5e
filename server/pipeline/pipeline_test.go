package pipeline

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/BurntSushi/migration"
	"github.com/Jatinnn-r/Video-Streaming-Platform/server/eventhub"
	"github.com/Jatinnn-r/Video-Streaming-Platform/server/model"
	"github.com/cyclopcam/dbh"
	"github.com/cyclopcam/logs"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	log := logs.NewTestingLog(t)
	idx := 0
	migs := []migration.Migrator{
		dbh.MakeMigrationFromSQL(log, &idx,
			`
			CREATE TABLE video(
				id INTEGER PRIMARY KEY,
				owner_id BIGINT NOT NULL,
				title TEXT NOT NULL,
				description TEXT,
				storage_ref TEXT NOT NULL,
				status TEXT NOT NULL DEFAULT 'pending',
				progress INT NOT NULL DEFAULT 0,
				created_at TIMESTAMP NOT NULL
			);
		`),
	}
	db, err := dbh.OpenDB(log, dbh.MakeSqliteConfig(filepath.Join(t.TempDir(), "videos.sqlite")), migs, 0)
	require.NoError(t, err)
	return db
}

func createVideo(t *testing.T, db *gorm.DB, title string) *model.Video {
	t.Helper()
	vid := &model.Video{
		OwnerID:    1,
		Title:      title,
		StorageRef: "videos/test.mp4",
		Status:     model.VideoStatusPending,
		CreatedAt:  dbh.Milli(time.Now().UTC()),
	}
	require.NoError(t, db.Create(vid).Error)
	return vid
}

func newTestPipeline(t *testing.T, db *gorm.DB, hub *eventhub.Hub) *Pipeline {
	t.Helper()
	p := NewPipeline(logs.NewTestingLog(t), db, hub, NewKeywordJudge([]string{"bomb", "attack", "kill", "gun"}), time.Second)
	// Don't wait on the wall clock
	p.sleep = func(time.Duration) {}
	return p
}

// collectQuiet reads events for one video until the terminal progress event,
// or until the timeout, and returns whatever it saw. Safe to call from any
// goroutine.
func collectQuiet(sub *eventhub.Subscriber, videoID int64) []eventhub.Event {
	evs := []eventhub.Event{}
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev := <-sub.C:
			if ev.VideoID != videoID {
				continue
			}
			evs = append(evs, ev)
			if ev.Type == eventhub.EventTypeProgress && ev.Progress == 100 {
				return evs
			}
		case <-deadline:
			return evs
		}
	}
}

// collect is collectQuiet plus a failure if the task never reached its
// terminal event.
func collect(t *testing.T, sub *eventhub.Subscriber, videoID int64) []eventhub.Event {
	t.Helper()
	evs := collectQuiet(sub, videoID)
	if len(evs) == 0 || evs[len(evs)-1].Progress != 100 {
		t.Fatalf("Timed out waiting for events of video %v. Got %v.", videoID, evs)
	}
	return evs
}

func TestClassifySafe(t *testing.T) {
	db := openTestDB(t)
	hub := eventhub.NewHub(logs.NewTestingLog(t))
	p := newTestPipeline(t, db, hub)
	vid := createVideo(t, db, "My holiday")

	sub := hub.Subscribe()
	defer sub.Close()
	p.Start(vid)
	evs := collect(t, sub, vid.ID)

	require.Len(t, evs, 6)
	for i, expect := range []int{0, 25, 50, 75} {
		require.Equal(t, eventhub.EventTypeProgress, evs[i].Type)
		require.Equal(t, expect, evs[i].Progress)
	}
	require.Equal(t, eventhub.EventTypeStatusChanged, evs[4].Type)
	require.Equal(t, model.VideoStatusSafe, evs[4].Status)
	require.Equal(t, eventhub.EventTypeProgress, evs[5].Type)
	require.Equal(t, 100, evs[5].Progress)

	final := model.Video{}
	require.NoError(t, db.First(&final, vid.ID).Error)
	require.Equal(t, model.VideoStatusSafe, final.Status)
	require.Equal(t, 100, final.Progress)
}

func TestClassifyFlagged(t *testing.T) {
	db := openTestDB(t)
	hub := eventhub.NewHub(logs.NewTestingLog(t))
	p := newTestPipeline(t, db, hub)
	vid := createVideo(t, db, "How to build a BOMB shelter")

	sub := hub.Subscribe()
	defer sub.Close()
	p.Start(vid)
	evs := collect(t, sub, vid.ID)

	require.Equal(t, eventhub.EventTypeStatusChanged, evs[len(evs)-2].Type)
	require.Equal(t, model.VideoStatusFlagged, evs[len(evs)-2].Status)

	final := model.Video{}
	require.NoError(t, db.First(&final, vid.ID).Error)
	require.Equal(t, model.VideoStatusFlagged, final.Status)
	require.Equal(t, 100, final.Progress)
}

// A subscriber who connects after the task finished sees nothing: events
// are not replayed.
func TestNoReplayForLateObserver(t *testing.T) {
	db := openTestDB(t)
	hub := eventhub.NewHub(logs.NewTestingLog(t))
	p := newTestPipeline(t, db, hub)
	vid := createVideo(t, db, "My holiday")

	early := hub.Subscribe()
	defer early.Close()
	p.Start(vid)
	collect(t, early, vid.ID)

	late := hub.Subscribe()
	defer late.Close()
	select {
	case ev := <-late.C:
		t.Fatalf("Late subscriber received a replayed event: %v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestConcurrentTasks(t *testing.T) {
	db := openTestDB(t)
	hub := eventhub.NewHub(logs.NewTestingLog(t))
	p := newTestPipeline(t, db, hub)

	nVideos := 8
	vids := make([]*model.Video, nVideos)
	for i := range vids {
		title := "My holiday"
		if i%2 == 1 {
			title = "gun range day"
		}
		vids[i] = createVideo(t, db, title)
	}

	subs := make([]*eventhub.Subscriber, nVideos)
	for i := range subs {
		subs[i] = hub.Subscribe()
		defer subs[i].Close()
	}
	for _, vid := range vids {
		p.Start(vid)
	}

	// Every subscriber sees every video's events, in per-video order
	results := make([][]eventhub.Event, nVideos)
	wg := sync.WaitGroup{}
	for i, sub := range subs {
		wg.Add(1)
		go func(i int, sub *eventhub.Subscriber) {
			defer wg.Done()
			results[i] = collectQuiet(sub, vids[i].ID)
		}(i, sub)
	}
	wg.Wait()
	for i, evs := range results {
		require.NotEmpty(t, evs, "video %v", vids[i].ID)
		require.Equal(t, 0, evs[0].Progress)
		require.Equal(t, 100, evs[len(evs)-1].Progress)
	}

	for i, vid := range vids {
		final := model.Video{}
		require.NoError(t, db.First(&final, vid.ID).Error)
		require.Equal(t, 100, final.Progress)
		if i%2 == 1 {
			require.Equal(t, model.VideoStatusFlagged, final.Status)
		} else {
			require.Equal(t, model.VideoStatusSafe, final.Status)
		}
	}
}

// A failed progress write halts the task without panicking, and no further
// events are published.
func TestHaltOnPersistFailure(t *testing.T) {
	db := openTestDB(t)
	hub := eventhub.NewHub(logs.NewTestingLog(t))
	p := newTestPipeline(t, db, hub)
	vid := createVideo(t, db, "My holiday")

	// Sabotage the table so every UPDATE fails
	require.NoError(t, db.Exec("ALTER TABLE video RENAME TO video_gone").Error)

	sub := hub.Subscribe()
	defer sub.Close()
	p.Start(vid)

	select {
	case ev := <-sub.C:
		t.Fatalf("Received event %v despite persistence failure", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestKeywordJudge(t *testing.T) {
	j := NewKeywordJudge([]string{"bomb", "attack", "kill", "gun"})
	require.False(t, j.IsUnsafe(&model.Video{Title: "My holiday in Rome"}))
	require.True(t, j.IsUnsafe(&model.Video{Title: "bomb disposal 101"}))
	require.True(t, j.IsUnsafe(&model.Video{Title: "Shark ATTACK compilation"}))
	require.True(t, j.IsUnsafe(&model.Video{Title: "overkill"})) // substring match
	require.False(t, j.IsUnsafe(&model.Video{Title: ""}))
}
