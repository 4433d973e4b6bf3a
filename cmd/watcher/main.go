package main

import (
	"flag"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/zeromicro/go-zero/core/conf"
	"github.com/zeromicro/go-zero/core/logx"
	zerosvc "github.com/zeromicro/go-zero/core/service"

	"governance-sdk-sol/internal/config"
	"governance-sdk-sol/internal/logic/grpc"
	"governance-sdk-sol/internal/service"
	"governance-sdk-sol/internal/svc"
	"governance-sdk-sol/pkg/logger"
)

var configFile = flag.String("f", "etc/watcher.yaml", "the config file")

func main() {
	defer func() {
		if r := recover(); r != nil {
			logx.Errorf("panic: %+v\nstack: %s", r, debug.Stack())
		}
	}()

	flag.Parse()

	var c config.WatcherConfig
	conf.MustLoad(*configFile, &c)

	if err := logger.InitLogger(c.LogConf.ToLogOption()); err != nil {
		logx.Errorf("init logger: %v", err)
		os.Exit(1)
	}
	defer logger.Sync()

	serviceContext, err := svc.NewWatcherServiceContext(c)
	if err != nil {
		panic(err)
	}
	defer serviceContext.Close()

	program := serviceContext.Deployment.ProgramID
	updates := make(chan *grpc.AccountUpdate, 1024)

	streamManager, err := grpc.NewAccountStreamManager(c.Grpc, program, updates)
	if err != nil {
		panic(err)
	}
	watchService := service.NewWatchService(updates, serviceContext.Sender, program,
		c.KafkaProducer.Topics.Governance, c.KafkaProducer.Partitions.Governance, c.TimeConf.BatchFlush())

	sg := zerosvc.NewServiceGroup()
	sg.Add(watchService)
	sg.Add(streamManager)

	logger.Infof("[Main] starting account watcher for program %s", program)
	go sg.Start()

	// 等待退出信号
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Infof("[Main] shutting down services...")
	sg.Stop()
}
