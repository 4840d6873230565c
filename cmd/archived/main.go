// archived serves a message archive over gRPC.
package main

import (
	"flag"
	"fmt"
	"net"
	"os"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/sectormesh/routing/storage"
	"github.com/sectormesh/routing/storage/archiveconfig"
	"github.com/sectormesh/routing/storage/grpcarchive"
	"github.com/sectormesh/routing/storage/localfs"
)

func main() {
	fs := flag.NewFlagSet("archived", flag.ExitOnError)
	listen := fs.String("listen", "127.0.0.1:7400", "listen address")
	dir := fs.String("dir", "", "serve a localfs archive rooted here")
	configPath := fs.String("config", "", "serve the archive described by this config file")
	debug := fs.Bool("debug", false, "enable debug logging")

	_ = fs.Parse(os.Args[1:])

	logger, err := newLogger(*debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer func() { _ = logger.Sync() }()

	var backend storage.Archive
	closeFn := func() error { return nil }
	switch {
	case *dir != "" && *configPath != "":
		logger.Fatal("conflicting flags: -dir cannot be combined with -config")
	case *dir != "":
		backend, err = localfs.New(*dir)
		if err != nil {
			logger.Fatal("open archive", zap.Error(err))
		}
	case *configPath != "":
		cfg, err := archiveconfig.LoadFile(*configPath)
		if err != nil {
			logger.Fatal("load config", zap.Error(err))
		}
		backend, closeFn, err = cfg.Open("")
		if err != nil {
			logger.Fatal("open archive", zap.Error(err))
		}
	default:
		logger.Fatal("missing backend: use -dir or -config")
	}
	defer func() { _ = closeFn() }()

	lis, err := net.Listen("tcp", *listen)
	if err != nil {
		logger.Fatal("listen", zap.String("addr", *listen), zap.Error(err))
	}
	defer lis.Close()

	s := grpc.NewServer()
	grpcarchive.RegisterArchiveServer(s, &grpcarchive.Server{Archive: backend})

	logger.Info("archived listening", zap.String("addr", lis.Addr().String()))
	if err := s.Serve(lis); err != nil {
		logger.Fatal("serve", zap.Error(err))
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
