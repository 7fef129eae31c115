package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/lsst-dm/cm-service-sub002/cmd/loops/recurring"
	"github.com/lsst-dm/cm-service-sub002/cmd/loops/tasks/activating"
	"github.com/lsst-dm/cm-service-sub002/cmd/loops/tasks/dispatching"
	"github.com/lsst-dm/cm-service-sub002/cmd/loops/tasks/evaluating"
	"github.com/lsst-dm/cm-service-sub002/cmd/loops/tasks/polling"
	"github.com/lsst-dm/cm-service-sub002/cmd/loops/tasks/preparing"
	"github.com/lsst-dm/cm-service-sub002/pkg/domain"
	"github.com/lsst-dm/cm-service-sub002/pkg/domain/cmservice"
	"github.com/lsst-dm/cm-service-sub002/pkg/domain/specification"
	"github.com/lsst-dm/cm-service-sub002/pkg/loop"
)

type LoggerOptions func(*log.Logger) *log.Logger

func byLogger(l *log.Logger, opt ...LoggerOptions) *log.Logger {
	for _, o := range opt {
		l = o(l)
	}
	return l
}

func Copied() LoggerOptions {
	return func(l *log.Logger) *log.Logger {
		return log.New(l.Writer(), l.Prefix(), l.Flags())
	}
}

func WithPrefix(pre string) LoggerOptions {
	return func(l *log.Logger) *log.Logger {
		l.SetPrefix(pre)
		return l
	}
}

func WithTimestamp() LoggerOptions {
	return func(l *log.Logger) *log.Logger {
		l.SetFlags(l.Flags() | log.Ldate | log.Ltime | log.Lmicroseconds)
		return l
	}
}

// Wrapper for monitoring loop tasks
//
//	Log the start and end of each time a task is executed. Essentially, it executes a task.
func monitor[T any](logger *log.Logger, task loop.Task[T]) loop.Task[T] {
	// counter for execution of the task
	var counter uint64
	return func(ctx context.Context, t T) (ret T, next loop.Next) {
		// func() capture the 'counter' variable
		counter += 1
		timestamp := time.Now()

		logger.Printf("task start: #0x%X: ", counter)

		// log at the end of the task
		defer func() {
			logger.Printf(
				"task end: #0x%X (takes %s): %s\n with value = %#v",
				counter, time.Since(timestamp), next, ret,
			)
		}()

		// execute the task specified by the argument
		ret, next = task(ctx, t)
		return
	}
}

// Manifest for starting a loop, which determines how the loop should behave.
type LoopManifest struct {
	// Policy for the looping
	Policy recurring.Policy
}

// StartLoop runs the loop of the given type until ctx is done or the
// policy breaks.
func StartLoop(
	ctx context.Context,
	logger *log.Logger,
	cms cmservice.CmService,
	loopType domain.LoopType,
	manifest LoopManifest,
) error {
	switch loopType {
	case domain.Preparing:
		return StartPreparingLoop(ctx, logger, cms, manifest)
	case domain.Activating:
		return StartActivatingLoop(ctx, logger, cms, manifest)
	case domain.Dispatching:
		return StartDispatchingLoop(ctx, logger, cms, manifest)
	case domain.Evaluating:
		return StartEvaluatingLoop(ctx, logger, cms, manifest)
	case domain.Polling:
		return StartPollingLoop(ctx, logger, cms, manifest)
	default:
		return fmt.Errorf("%w: %s", domain.ErrUnknownLoopType, loopType)
	}
}

func StartPreparingLoop(
	ctx context.Context,
	logger *log.Logger,
	cms cmservice.CmService,
	manifest LoopManifest,
) error {
	l := byLogger(logger, Copied(), WithPrefix("[preparing loop]"))
	_, err := loop.Start(
		ctx, preparing.Seed(cms.Config().Engine().Debounce()),
		monitor(
			l,
			preparing.Task(
				l,
				cms.Elements(),
				specification.NewInstantiator(cms.Elements(), cms.Specifications()),
				cms.Activity(),
			).Applied(manifest.Policy),
		),
		loop.WithTimeout(30*time.Second),
	)
	return err
}

func StartActivatingLoop(
	ctx context.Context,
	logger *log.Logger,
	cms cmservice.CmService,
	manifest LoopManifest,
) error {
	l := byLogger(logger, Copied(), WithPrefix("[activating loop]"))
	_, err := loop.Start(
		ctx, activating.Seed(cms.Config().Engine().Debounce()),
		monitor(
			l,
			activating.Task(
				l, cms.Elements(), cms.Activity(),
			).Applied(manifest.Policy),
		),
		loop.WithTimeout(30*time.Second),
	)
	return err
}

func StartDispatchingLoop(
	ctx context.Context,
	logger *log.Logger,
	cms cmservice.CmService,
	manifest LoopManifest,
) error {
	l := byLogger(logger, Copied(), WithPrefix("[dispatching loop]"))
	_, err := loop.Start(
		ctx, dispatching.Seed(cms.Config().Engine().Debounce()),
		monitor(
			l,
			dispatching.Task(
				l,
				cms.Elements(),
				cms.Handlers(),
				cms.Wms(),
				cms.Activity(),
				cms.Config().Engine().RecheckInterval(),
			).Applied(manifest.Policy),
		),
		loop.WithTimeout(30*time.Second),
	)
	return err
}

func StartEvaluatingLoop(
	ctx context.Context,
	logger *log.Logger,
	cms cmservice.CmService,
	manifest LoopManifest,
) error {
	l := byLogger(logger, Copied(), WithPrefix("[evaluating loop]"))
	_, err := loop.Start(
		ctx, evaluating.Seed(cms.Config().Engine().Debounce()),
		monitor(
			l,
			evaluating.Task(
				l, cms.Elements(), cms.Handlers(), cms.Activity(),
			).Applied(manifest.Policy),
		),
		loop.WithTimeout(30*time.Second),
	)
	return err
}

func StartPollingLoop(
	ctx context.Context,
	logger *log.Logger,
	cms cmservice.CmService,
	manifest LoopManifest,
) error {
	l := byLogger(logger, Copied(), WithPrefix("[polling loop]"))
	_, err := loop.Start(
		ctx, polling.Seed(),
		monitor(
			l,
			polling.Task(
				l,
				cms.Elements(),
				cms.Queue(),
				cms.Reports(),
				cms.Wms(),
				cms.Activity(),
				cms.Config().Engine().MaxPollFailures(),
			).Applied(manifest.Policy),
		),
		loop.WithTimeout(30*time.Second),
	)
	return err
}
