package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/lsst-dm/cm-service-sub002/cmd/loops/recurring"
	configs "github.com/lsst-dm/cm-service-sub002/pkg/configs/backend"
	"github.com/lsst-dm/cm-service-sub002/pkg/domain"
	"github.com/lsst-dm/cm-service-sub002/pkg/domain/cmservice"
	"github.com/lsst-dm/cm-service-sub002/pkg/utils/args"
	"github.com/lsst-dm/cm-service-sub002/pkg/utils/filewatch"
	"github.com/lsst-dm/cm-service-sub002/pkg/utils/try"
)

func main() {
	logger := log.Default()
	ctx, cancel := signal.NotifyContext(
		context.Background(), os.Interrupt, os.Kill, syscall.SIGTERM,
	)
	defer cancel()

	pconfig := flag.String(
		"config", os.Getenv("CM_BACKEND_CONFIG"), "path to config file",
	)
	loopType := args.Parser(domain.AsLoopType)
	flag.Var(loopType, "type", "loop to run (preparing|activating|dispatching|evaluating|polling)")
	policy := args.Parser(recurring.ParsePolicy)
	flag.Var(
		policy, "policy",
		`rescheduling policy. "forever[:COOLDOWN]" keeps the loop running,`+
			` sleeping COOLDOWN (a duration, default 0) when the backlog drains.`+
			` "backlog" stops once the backlog drains.`,
	)
	flag.Parse()

	{
		// restart (via the supervisor) when the config changes
		wctx, cancel, err := filewatch.UntilModifyContext(ctx, *pconfig)
		if err != nil {
			logger.Fatal(err)
		}
		defer cancel()
		ctx = wctx
	}

	conf := try.To(configs.LoadBackendConfig(*pconfig)).OrFatal(logger)

	cms := try.To(cmservice.Default(ctx, conf.Cluster())).OrFatal(logger)
	defer cms.Close()

	logger.Printf(
		`start loop "%s" /w policy "%s"`,
		loopType.Value().String(), policy.Value().String(),
	)

	err := StartLoop(
		ctx, logger, cms, loopType.Value(),
		LoopManifest{Policy: recurring.UntilError(policy.Value())},
	)

	if err == nil {
		return
	} else if errors.Is(err, context.Canceled) {
		logger.Fatal(err, "(loop context is cancelled by:", context.Cause(ctx), ")")
	}

	if ctx.Err() != nil {
		logger.Fatal(err)
	}
}
