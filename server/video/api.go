package video

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Jatinnn-r/Video-Streaming-Platform/pkg/rando"
	"github.com/Jatinnn-r/Video-Streaming-Platform/server/auth"
	"github.com/Jatinnn-r/Video-Streaming-Platform/server/model"
	"github.com/Jatinnn-r/Video-Streaming-Platform/server/pipeline"
	"github.com/Jatinnn-r/Video-Streaming-Platform/server/storage"
	"github.com/Jatinnn-r/Video-Streaming-Platform/server/storagecache"
	"github.com/cyclopcam/dbh"
	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/www"
	"github.com/julienschmidt/httprouter"
	"gorm.io/gorm"
)

const maxUploadSize = int64(64 * 1024 * 1024)

// multipartMemoryLimit is how much of an upload we hold in memory before
// net/http spills the rest to a temp file.
const multipartMemoryLimit = int64(16 * 1024 * 1024)

// VideoServer owns the video API surface: upload intake, record queries,
// and range-request streaming.
type VideoServer struct {
	log          logs.Log
	db           *gorm.DB
	storage      storage.Storage
	storageCache *storagecache.Cache // nil when the storage backend is directly seekable (filesystem)
	pipeline     *pipeline.Pipeline
}

func NewVideoServer(log logs.Log, db *gorm.DB, store storage.Storage, cache *storagecache.Cache, pipe *pipeline.Pipeline) *VideoServer {
	return &VideoServer{
		log:          log,
		db:           db,
		storage:      store,
		storageCache: cache,
		pipeline:     pipe,
	}
}

// newStorageRef generates a fresh blob store key for an upload.
// Refs live in a flat "videos/" namespace, and the final path element is
// what the stream route addresses.
func newStorageRef(originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	if ext == "" {
		ext = ".mp4"
	}
	return "videos/" + rando.StrongRandomAlphaNumChars(16) + ext
}

// HttpUploadVideo accepts a multipart upload: file field "video", text fields
// "title" and optional "description". The record is created with
// status=pending, progress=0, and the classification task is scheduled
// before we reply, but the reply never waits for it.
func (s *VideoServer) HttpUploadVideo(w http.ResponseWriter, r *http.Request, params httprouter.Params, cred *auth.Credentials) {
	if r.ContentLength > maxUploadSize {
		www.PanicBadRequestf("Request body is too large: %v. Maximum size: %v MB", r.ContentLength, maxUploadSize/(1024*1024))
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		www.PanicBadRequestf("Failed to parse multipart form: %v", err)
	}
	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		www.PanicBadRequestf("Must specify a title")
	}
	if len(title) > 200 {
		title = title[:200]
	}
	file, header, err := r.FormFile("video")
	if err != nil {
		www.PanicBadRequestf("Must attach a video file")
	}
	defer file.Close()
	if header.Size == 0 {
		www.PanicBadRequestf("Video file is empty")
	}

	vid := model.Video{
		OwnerID:     cred.UserID,
		Title:       title,
		Description: strings.TrimSpace(r.FormValue("description")),
		StorageRef:  newStorageRef(header.Filename),
		Status:      model.VideoStatusPending,
		Progress:    0,
		CreatedAt:   dbh.Milli(time.Now().UTC()),
	}
	tx := s.db.Begin()
	www.Check(tx.Error)
	defer tx.Rollback()
	www.Check(tx.Create(&vid).Error)
	www.Check(storage.WriteFile(s.storage, vid.StorageRef, file))
	www.Check(tx.Commit().Error)

	s.pipeline.Start(&vid)

	s.log.Infof("New video %v from user %v (%v bytes)", vid.ID, cred.UserID, header.Size)
	www.SendJSON(w, &vid)
}

// HttpListVideos returns all video records, newest first.
func (s *VideoServer) HttpListVideos(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	vids := []model.Video{}
	www.Check(s.db.Order("created_at DESC, id DESC").Find(&vids).Error)
	www.SendJSON(w, vids)
}

// HttpGetVideo returns a single video record. Clients that aren't listening
// on the events channel poll this to observe classification progress.
func (s *VideoServer) HttpGetVideo(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	vid := model.Video{}
	if err := s.db.First(&vid, www.ParseID(params.ByName("id"))).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			www.PanicNotFound()
		}
		www.Check(err)
	}
	www.SendJSON(w, &vid)
}

// HttpStreamVideo serves video bytes for playback, with HTTP range request
// support so that the <video> element can seek.
func (s *VideoServer) HttpStreamVideo(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	s.serveRange(w, r, "videos/"+params.ByName("ref"))
}

// serveRange answers either 200 with the whole blob, or 206 with exactly the
// requested byte window. Either way we stream from a seeked reader, so memory
// use is independent of blob size.
func (s *VideoServer) serveRange(w http.ResponseWriter, r *http.Request, ref string) {
	reader, size, err := s.openSeekable(ref)
	if errors.Is(err, storage.ErrNotExist) {
		www.PanicNotFound()
	}
	www.Check(err)
	defer reader.Close()

	rng, err := parseRange(r.Header.Get("Range"), size)
	if err != nil {
		w.Header().Set("Content-Range", "bytes */"+strconv.FormatInt(size, 10))
		www.Panic(http.StatusRequestedRangeNotSatisfiable, "Requested range not satisfiable")
	}

	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Type", "video/mp4")
	if rng == nil {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
		w.WriteHeader(http.StatusOK)
		if _, err := io.Copy(w, reader); err != nil {
			// Clients abandoning playback mid-stream is normal
			s.log.Infof("Stream of %v aborted: %v", ref, err)
		}
		return
	}

	_, err = reader.Seek(rng.Start, io.SeekStart)
	www.Check(err)
	w.Header().Set("Content-Range", rng.ContentRange())
	w.Header().Set("Content-Length", strconv.FormatInt(rng.Length(), 10))
	w.WriteHeader(http.StatusPartialContent)
	if _, err := io.CopyN(w, reader, rng.Length()); err != nil {
		s.log.Infof("Stream of %v aborted: %v", ref, err)
	}
}

// openSeekable returns a seekable reader over the blob, plus its total size.
// Filesystem storage hands us an *os.File directly. Blob stores that can only
// read forward (GCS) go through the local cache.
func (s *VideoServer) openSeekable(ref string) (io.ReadSeekCloser, int64, error) {
	if s.storageCache != nil {
		f, err := s.storageCache.Open(ref)
		if err != nil {
			return nil, 0, err
		}
		return f, f.Size(), nil
	}
	f, err := s.storage.ReadFile(ref)
	if err != nil {
		return nil, 0, err
	}
	seeker, ok := f.Reader.(io.ReadSeekCloser)
	if !ok {
		f.Reader.Close()
		return nil, 0, errors.New("Storage backend is not seekable. Configure videoCache to enable streaming.")
	}
	return seeker, f.Size, nil
}
