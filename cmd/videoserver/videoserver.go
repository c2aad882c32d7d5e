package main

import (
	"fmt"
	"os"

	"github.com/Jatinnn-r/Video-Streaming-Platform/server"
	"github.com/akamensky/argparse"
)

func main() {
	parser := argparse.NewParser("videoserver", "Video upload, moderation and streaming server")
	hotReloadWWW := parser.Flag("", "hot", &argparse.Options{Help: "Hot reload www instead of embedding into binary", Default: false})
	configFilePath := parser.String("c", "config", &argparse.Options{Help: "Config file path", Default: "videoserver.json"})
	port := parser.String("p", "port", &argparse.Options{Help: "HTTP listen port", Default: ":8080"})
	err := parser.Parse(os.Args)
	if err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}

	s, err := server.NewServer(*configFilePath)
	if err != nil {
		panic(err)
	}
	s.HotReloadWWW = *hotReloadWWW
	s.ListenForKillSignals()
	if err := s.ListenHTTP(*port); err != nil {
		fmt.Printf("%v\n", err)
	}
}
