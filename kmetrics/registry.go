package kmetrics

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/xinkaiwang/workerblitz/kcommon"
	"go.opencensus.io/metric/metricdata"
)

// KmetricsRegistry implements the metricproducer.Producer interface.
type KmetricsRegistry struct {
	mu         sync.Mutex // lock this only when registering
	collection unsafe.Pointer
}

func NewKmetricsRegistry() *KmetricsRegistry {
	return &KmetricsRegistry{
		collection: unsafe.Pointer(CreateKmetricsCollection()),
	}
}

// RegisterKmetric registers a new Kmetric.
func (registry *KmetricsRegistry) RegisterKmetric(km *Kmetric) {
	kcommon.RunWithLock(&registry.mu, func() {
		oldCollection := (*KmetricsCollection)(atomic.LoadPointer(&registry.collection))
		newCollection := oldCollection.Clone()
		newCollection.dict[km.metricName] = km
		atomic.StorePointer(&registry.collection, unsafe.Pointer(newCollection))
	})
}

// Read returns all registered metrics. Called by the OpenCensus export
// pipeline on every scrape.
func (registry *KmetricsRegistry) Read() []*metricdata.Metric {
	collection := (*KmetricsCollection)(atomic.LoadPointer(&registry.collection))
	list := []*metricdata.Metric{}
	for _, km := range collection.dict {
		list = append(list, km.ReadCount())
		if !km.countOnly {
			list = append(list, km.ReadSum())
		}
	}
	return list
}

// KmetricsCollection is immutable; a new collection is created for new
// Kmetrics.
type KmetricsCollection struct {
	dict map[string]*Kmetric
}

func CreateKmetricsCollection() *KmetricsCollection {
	return &KmetricsCollection{
		dict: make(map[string]*Kmetric),
	}
}

func (collection *KmetricsCollection) Clone() *KmetricsCollection {
	newCollection := CreateKmetricsCollection()
	for k, v := range collection.dict {
		newCollection.dict[k] = v
	}
	return newCollection
}

var kmetricsRegistry = NewKmetricsRegistry()

// GetKmetricsRegistry returns the singleton instance of KmetricsRegistry.
func GetKmetricsRegistry() *KmetricsRegistry {
	return kmetricsRegistry
}
