package backend

import (
	"time"
)

type BackendConfig struct {
	cluster *ClusterConfig
}

func (c *BackendConfig) Cluster() *ClusterConfig {
	return c.cluster
}

// Configuration for one cm-service deployment.
//
// to get `ClusterConfig` instance, use `ClusterConfigMarshall.TrySeal()` .
type ClusterConfig struct {
	namespace string
	database  string
	wms       *WmsConfig
	engine    *EngineConfig
}

// k8s namespace where cm-service is deployed.
func (c *ClusterConfig) Namespace() string {
	return c.namespace
}

// Connection string for database.
func (c *ClusterConfig) Database() string {
	return c.database
}

// Configuration for the workload manager.
func (c *ClusterConfig) Wms() *WmsConfig {
	return c.wms
}

// Configuration for the engine loops.
func (c *ClusterConfig) Engine() *EngineConfig {
	return c.engine
}

type WmsConfig struct {
	namespace string
}

// k8s namespace where element workloads run.
func (w *WmsConfig) Namespace() string {
	return w.namespace
}

type EngineConfig struct {
	recheckInterval time.Duration
	debounce        time.Duration
	maxPollFailures int
}

// Interval between rechecks of a running element.
func (e *EngineConfig) RecheckInterval() time.Duration {
	return e.recheckInterval
}

// Hold-back before the same element is picked again when nothing
// changed.
func (e *EngineConfig) Debounce() time.Duration {
	return e.debounce
}

// Consecutive poll failures tolerated before an element fails.
func (e *EngineConfig) MaxPollFailures() int {
	return e.maxPollFailures
}
