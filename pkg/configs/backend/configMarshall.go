package backend

import (
	"fmt"
	"time"
)

type Marshalled[S any] interface {
	trySeal(string) S
}

// seal marshalled object.
//
// this function CAN CAUSE PANIC if misconfiguration is found.
//
// All types named `pkg/configs/backend.XxxMarshall` are `Marshalled[*Xxx]` .
func TrySeal[S any](conf Marshalled[S]) S {
	return conf.trySeal("(root)")
}

type BackendConfigMarshall struct {
	Cluster *ClusterConfigMarshall `yaml:"cluster"`
}

var _ Marshalled[*BackendConfig] = &BackendConfigMarshall{}

func (b *BackendConfigMarshall) trySeal(path string) *BackendConfig {
	return &BackendConfig{
		cluster: nonnil(b.Cluster, path+".cluster").trySeal(path + ".cluster"),
	}
}

// Configuration of a cm-service deployment.
//
// This type is marshalling value and mutable.
// Consider to use immutable version, `ClusterConfig`.
// You can get `ClusterConfig` instance with `ClusterConfigMarshall.TrySeal()`
type ClusterConfigMarshall struct {
	Namespace string                `yaml:"namespace"`
	Database  string                `yaml:"database"`
	Wms       *WmsConfigMarshall    `yaml:"wms"`
	Engine    *EngineConfigMarshall `yaml:"engine,omitempty"`
}

// verify configuration value and create "readonly" version of this.
//
// IT WILL PANIC if any misconfiguration is found.
func (cm *ClusterConfigMarshall) TrySeal() *ClusterConfig {
	return cm.trySeal("(root)")
}

func (cm *ClusterConfigMarshall) trySeal(path string) *ClusterConfig {
	engine := cm.Engine
	if engine == nil {
		engine = &EngineConfigMarshall{}
	}
	return &ClusterConfig{
		namespace: required(cm.Namespace, path+".namespace"),
		database:  required(cm.Database, path+".database"),
		wms:       nonnil(cm.Wms, path+".wms").trySeal(path + ".wms"),
		engine:    engine.trySeal(path + ".engine"),
	}
}

type WmsConfigMarshall struct {
	Namespace string `yaml:"namespace"`
}

func (wm *WmsConfigMarshall) trySeal(path string) *WmsConfig {
	return &WmsConfig{
		namespace: required(wm.Namespace, path+".namespace"),
	}
}

type EngineConfigMarshall struct {
	RecheckInterval string `yaml:"recheckInterval,omitempty"`
	Debounce        string `yaml:"debounce,omitempty"`
	MaxPollFailures int    `yaml:"maxPollFailures,omitempty"`
}

func (em *EngineConfigMarshall) trySeal(path string) *EngineConfig {
	conf := &EngineConfig{
		recheckInterval: 5 * time.Minute,
		debounce:        30 * time.Second,
		maxPollFailures: 5,
	}
	if em.RecheckInterval != "" {
		conf.recheckInterval = duration(em.RecheckInterval, path+".recheckInterval")
	}
	if em.Debounce != "" {
		conf.debounce = duration(em.Debounce, path+".debounce")
	}
	if em.MaxPollFailures != 0 {
		conf.maxPollFailures = em.MaxPollFailures
	}
	return conf
}

func duration(v string, path string) time.Duration {
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(fmt.Errorf("%s can not be parsed: %w", path, err))
	}
	if d <= 0 {
		panic(path + " should be positive")
	}
	return d
}

func nonnil[T any](v *T, path string) *T {
	if v == nil {
		panic(path + " is required")
	}
	return v
}

func required[T comparable](v T, path string) T {
	if v == *new(T) {
		panic(path + " is required")
	}
	return v
}
