package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Jatinnn-r/Video-Streaming-Platform/server/auth"
	"github.com/Jatinnn-r/Video-Streaming-Platform/server/eventhub"
	"github.com/Jatinnn-r/Video-Streaming-Platform/server/pipeline"
	"github.com/Jatinnn-r/Video-Streaming-Platform/server/storage"
	"github.com/Jatinnn-r/Video-Streaming-Platform/server/storagecache"
	"github.com/Jatinnn-r/Video-Streaming-Platform/server/video"
	"github.com/cyclopcam/logs"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"gorm.io/gorm"
)

type Server struct {
	HotReloadWWW bool
	Log          logs.Log
	DB           *gorm.DB
	Hub          *eventhub.Hub

	signalIn     chan os.Signal
	httpServer   *http.Server
	httpRouter   *httprouter.Router
	wsUpgrader   websocket.Upgrader
	auth         *auth.AuthServer
	video        *video.VideoServer
	pipeline     *pipeline.Pipeline
	storage      storage.Storage
	storageCache *storagecache.Cache
}

func NewServer(configFile string) (*Server, error) {
	cfg := Config{}
	if cfgB, err := os.ReadFile(configFile); err != nil {
		return nil, err
	} else {
		if err := json.Unmarshal(cfgB, &cfg); err != nil {
			return nil, fmt.Errorf("Error parsing config file %v: %w", configFile, err)
		}
	}
	logger, err := logs.NewLog()
	if err != nil {
		return nil, err
	}
	db, err := openDB(logger, cfg.DB)
	if err != nil {
		return nil, err
	}
	authServer := auth.NewAuthServer(db, logger, "videoapp-session")

	// Open blob store
	var storageServer storage.Storage
	var storageCache *storagecache.Cache
	if cfg.VideoStorage.GCS != nil {
		// Google Cloud Storage. GCS readers can't seek, so range serving
		// needs the local cache.
		storageServer, err = storage.NewStorageGCS(logger, cfg.VideoStorage.GCS.Bucket)
		if err != nil {
			return nil, err
		}
		if cfg.VideoCache == "" {
			return nil, fmt.Errorf("videoCache must be configured when using gcs storage")
		}
		storageCache, err = storagecache.NewCache(logger, storageServer, cfg.VideoCache, 256*1024*1024)
		if err != nil {
			return nil, err
		}
	} else if cfg.VideoStorage.Filesystem != nil {
		// Filesystem
		storageServer, err = storage.NewStorageFS(logger, cfg.VideoStorage.Filesystem.Root)
		if err != nil {
			return nil, err
		}
	} else {
		return nil, fmt.Errorf("One of the storage options must be configured (i.e. either 'filesystem' or 'gcs')")
	}

	hub := eventhub.NewHub(logger)
	judge := pipeline.NewKeywordJudge(cfg.Pipeline.DenylistOrDefault())
	pipe := pipeline.NewPipeline(logger, db, hub, judge, cfg.Pipeline.StepInterval())
	videoServer := video.NewVideoServer(logger, db, storageServer, storageCache, pipe)
	s := &Server{
		Log: logger,
		DB:  db,
		Hub: hub,
		wsUpgrader: websocket.Upgrader{
			// The dev front-end runs on a different origin
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		auth:         authServer,
		video:        videoServer,
		pipeline:     pipe,
		storage:      storageServer,
		storageCache: storageCache,
	}
	return s, nil
}

// port example: ":8080"
// Routes are built here rather than in NewServer, so that the caller has a
// chance to set HotReloadWWW first.
func (s *Server) ListenHTTP(port string) error {
	if err := s.setupHttpRoutes(); err != nil {
		return err
	}
	s.Log.Infof("Listening on %v", port)
	s.httpServer = &http.Server{
		Addr:    port,
		Handler: s.httpRouter,
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) ListenForKillSignals() {
	s.Log.Infof("ListenForKillSignals starting")
	s.signalIn = make(chan os.Signal, 1)
	signal.Notify(s.signalIn, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig, ok := <-s.signalIn:
			if ok {
				s.Log.Infof("Received OS signal '%v'. ListenForKillSignals will exit after shutdown", sig.String())
				s.Shutdown()
			} else {
				// This path gets hit when Shutdown() is called by something other than ourselves, and Shutdown() closes the signalIn channel.
				s.Log.Infof("signalIn closed. ListenForKillSignals will exit now")
			}
		}
	}()
}

func (s *Server) Shutdown() {
	s.Log.Infof("Shutdown")
	signal.Stop(s.signalIn)
	close(s.signalIn)
	s.Log.Infof("Closing HTTP server")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	err := s.httpServer.Shutdown(ctx)
	defer cancel()
	if err != nil {
		s.Log.Warnf("Shutdown complete, with error: %v", err)
	} else {
		s.Log.Infof("Shutdown complete")
	}
	s.Log.Close()
}
