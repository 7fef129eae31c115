package cmservice

import (
	"context"
	"log"

	bconf "github.com/lsst-dm/cm-service-sub002/pkg/configs/backend"
	kpool "github.com/lsst-dm/cm-service-sub002/pkg/conn/db/postgres/pool"
	actdb "github.com/lsst-dm/cm-service-sub002/pkg/domain/activity/db"
	actpg "github.com/lsst-dm/cm-service-sub002/pkg/domain/activity/db/postgres"
	elemdb "github.com/lsst-dm/cm-service-sub002/pkg/domain/element/db"
	elempg "github.com/lsst-dm/cm-service-sub002/pkg/domain/element/db/postgres"
	"github.com/lsst-dm/cm-service-sub002/pkg/domain/element/ops"
	"github.com/lsst-dm/cm-service-sub002/pkg/domain/handlers"
	"github.com/lsst-dm/cm-service-sub002/pkg/domain/internal/db/postgres/schema"
	queuedb "github.com/lsst-dm/cm-service-sub002/pkg/domain/queue/db"
	queuepg "github.com/lsst-dm/cm-service-sub002/pkg/domain/queue/db/postgres"
	reportdb "github.com/lsst-dm/cm-service-sub002/pkg/domain/report/db"
	reportpg "github.com/lsst-dm/cm-service-sub002/pkg/domain/report/db/postgres"
	specdb "github.com/lsst-dm/cm-service-sub002/pkg/domain/specification/db"
	specpg "github.com/lsst-dm/cm-service-sub002/pkg/domain/specification/db/postgres"
	"github.com/lsst-dm/cm-service-sub002/pkg/domain/wms"
	wmsk8s "github.com/lsst-dm/cm-service-sub002/pkg/domain/wms/k8s"
	"github.com/lsst-dm/cm-service-sub002/pkg/utils/kubeutil"
	"k8s.io/client-go/kubernetes"
)

// CmService bundles every domain interface of one deployment.
type CmService interface {
	Config() *bconf.ClusterConfig

	Elements() elemdb.Interface
	Queue() queuedb.Interface
	Reports() reportdb.Interface
	Specifications() specdb.Interface
	Activity() actdb.Interface

	Wms() wms.Interface
	Handlers() *handlers.Registry

	// Ops exposes the administrative operations over the element
	// tree, logging advisory failures to logger.
	Ops(logger *log.Logger) *ops.Ops

	Close()
}

type cmService struct {
	config *bconf.ClusterConfig
	pool   kpool.Pool

	elements elemdb.Interface
	queue    queuedb.Interface
	reports  reportdb.Interface
	specs    specdb.Interface
	activity actdb.Interface

	wms      wms.Interface
	handlers *handlers.Registry
}

// Default connects to the database and kubernetes per config and
// wires the standard handler set.
func Default(ctx context.Context, config *bconf.ClusterConfig) (CmService, error) {
	clientset := kubeutil.ConnectToK8s()
	return New(ctx, config, clientset)
}

func New(
	ctx context.Context,
	config *bconf.ClusterConfig,
	clientset kubernetes.Interface,
) (CmService, error) {
	pool, err := kpool.New(ctx, config.Database())
	if err != nil {
		return nil, err
	}
	if err := schema.Apply(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &cmService{
		config: config,
		pool:   pool,

		elements: elempg.New(pool),
		queue:    queuepg.New(pool),
		reports:  reportpg.New(pool),
		specs:    specpg.New(pool),
		activity: actpg.New(pool),

		wms:      wmsk8s.New(clientset, config.Wms().Namespace()),
		handlers: handlers.Defaults(),
	}, nil
}

func (s *cmService) Config() *bconf.ClusterConfig {
	return s.config
}

func (s *cmService) Elements() elemdb.Interface {
	return s.elements
}

func (s *cmService) Queue() queuedb.Interface {
	return s.queue
}

func (s *cmService) Reports() reportdb.Interface {
	return s.reports
}

func (s *cmService) Specifications() specdb.Interface {
	return s.specs
}

func (s *cmService) Activity() actdb.Interface {
	return s.activity
}

func (s *cmService) Wms() wms.Interface {
	return s.wms
}

func (s *cmService) Handlers() *handlers.Registry {
	return s.handlers
}

func (s *cmService) Ops(logger *log.Logger) *ops.Ops {
	return ops.New(s.elements, s.queue, s.specs, s.activity, s.wms, logger)
}

func (s *cmService) Close() {
	s.pool.Close()
}
