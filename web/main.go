package main

import (
	"flag"
	"log"
	"net"
	"os"

	"google.golang.org/grpc"

	"github.com/df07/go-progressive-pathtracer/pkg/renderer"
	"github.com/df07/go-progressive-pathtracer/pkg/rpc"
	"github.com/df07/go-progressive-pathtracer/web/server"
)

func main() {
	config, err := server.LoadConfig()
	if err != nil {
		log.Printf("Error loading configuration: %v", err)
		os.Exit(1)
	}

	// Command line flags override the environment
	flag.StringVar(&config.Addr, "addr", config.Addr, "HTTP listen address")
	flag.StringVar(&config.GRPCAddr, "grpc", config.GRPCAddr, "gRPC frame service address (empty to disable)")
	flag.StringVar(&config.RecordDir, "record", config.RecordDir, "Directory for session recordings (empty to disable)")
	flag.StringVar(&config.ModelsDir, "models", config.ModelsDir, "Directory of OBJ/PLY mesh scenes")
	flag.StringVar(&config.StaticDir, "static", config.StaticDir, "Directory of static viewer files")
	flag.IntVar(&config.MaxFrames, "frames", config.MaxFrames, "Frames per render run (0 = until the viewer leaves)")
	flag.IntVar(&config.NumWorkers, "workers", config.NumWorkers, "Render workers per session (0 = CPU count)")
	flag.Parse()

	if config.GRPCAddr != "" {
		if err := startFrameService(config); err != nil {
			log.Printf("Error starting gRPC frame service: %v", err)
			os.Exit(1)
		}
	}

	webServer := server.NewServer(config)

	log.Printf("Progressive Path Tracer Web Server")
	log.Printf("Visit http://localhost%s to start rendering", config.Addr)

	if err := webServer.Start(); err != nil {
		log.Printf("Error starting server: %v", err)
		os.Exit(1)
	}
}

// startFrameService serves the gRPC frame stream in the background
func startFrameService(config server.Config) error {
	listener, err := net.Listen("tcp", config.GRPCAddr)
	if err != nil {
		return err
	}

	progressive := renderer.DefaultProgressiveConfig()
	progressive.NumWorkers = config.NumWorkers

	grpcServer := grpc.NewServer()
	rpc.Register(grpcServer, rpc.NewFrameService(nil, progressive, renderer.NewDefaultLogger()))

	log.Printf("gRPC frame service listening on %s", listener.Addr())
	go func() {
		if err := grpcServer.Serve(listener); err != nil {
			log.Printf("gRPC frame service stopped: %v", err)
		}
	}()
	return nil
}
