package kmetrics

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/xinkaiwang/workerblitz/kerror"
	"github.com/xinkaiwang/workerblitz/klogging"
	"go.opencensus.io/metric/metricdata"
	"go.opencensus.io/resource"
)

// Kmetric is 1 logical metric. It exports up to 2 metric names
// ("<name>_count" and "<name>_sum"), each holding one time sequence per
// unique tag value combination (for example worker="0", worker="1", ...).
type Kmetric struct {
	mu          sync.Mutex // lock this only when adding a new TimeSequence
	metricName  string
	description string
	tagNames    []string
	collection  unsafe.Pointer
	startTime   time.Time
	countOnly   bool
}

func CreateKmetric(ctx context.Context, name string, description string, tags []string) *Kmetric {
	km := &Kmetric{
		metricName:  name,
		description: description,
		tagNames:    tags,
		startTime:   time.Now(),
	}
	km.collection = unsafe.Pointer(CreateTimeSequenceCollection(km))

	GetKmetricsRegistry().RegisterKmetric(km)
	return km
}

// CountOnly drops the "_sum" export; use for metrics where only the event
// count is meaningful.
func (km *Kmetric) CountOnly() *Kmetric {
	km.countOnly = true
	return km
}

func makeSequenceKey(tags ...string) string {
	return strings.Join(tags, "-")
}

// GetTimeSequence: tag value list has to match tagNames in len and order.
// Fast path is a lock-free map read; the slow path copies the collection
// under the lock.
func (km *Kmetric) GetTimeSequence(ctx context.Context, tags ...string) *TimeSequence {
	key := makeSequenceKey(tags...)
	collection := (*TimeSequenceCollection)(atomic.LoadPointer(&km.collection))
	sequence, ok := collection.dict[key]
	if ok {
		return sequence
	}

	km.mu.Lock()
	defer km.mu.Unlock()

	// double check after lock
	collection = (*TimeSequenceCollection)(atomic.LoadPointer(&km.collection))
	sequence, ok = collection.dict[key]
	if ok {
		return sequence
	}

	newCollection := CreateTimeSequenceCollection(km)
	for k, v := range collection.dict {
		newCollection.dict[k] = v
	}
	newTimeSequence := CreateTimeSequence(ctx, key, km, tags)
	newCollection.dict[key] = newTimeSequence

	atomic.StorePointer(&km.collection, unsafe.Pointer(newCollection))
	return newTimeSequence
}

func (km *Kmetric) descriptor(suffix string) metricdata.Descriptor {
	keys := make([]metricdata.LabelKey, len(km.tagNames))
	for i, tagName := range km.tagNames {
		keys[i] = metricdata.LabelKey{Key: tagName}
	}
	return metricdata.Descriptor{
		Name:        km.metricName + suffix,
		Description: km.description,
		Unit:        metricdata.UnitDimensionless,
		Type:        metricdata.TypeCumulativeInt64,
		LabelKeys:   keys,
	}
}

func (km *Kmetric) ReadSum() *metricdata.Metric {
	collection := (*TimeSequenceCollection)(atomic.LoadPointer(&km.collection))
	timeSeries := []*metricdata.TimeSeries{}
	for _, ts := range collection.dict {
		timeSeries = append(timeSeries, ts.ReadSum())
	}
	return &metricdata.Metric{
		Descriptor: km.descriptor("_sum"),
		Resource:   &resource.Resource{Type: "workerblitz", Labels: map[string]string{}},
		TimeSeries: timeSeries,
	}
}

func (km *Kmetric) ReadCount() *metricdata.Metric {
	collection := (*TimeSequenceCollection)(atomic.LoadPointer(&km.collection))
	timeSeries := []*metricdata.TimeSeries{}
	for _, ts := range collection.dict {
		timeSeries = append(timeSeries, ts.ReadCount())
	}
	return &metricdata.Metric{
		Descriptor: km.descriptor("_count"),
		Resource:   &resource.Resource{Type: "workerblitz", Labels: map[string]string{}},
		TimeSeries: timeSeries,
	}
}

// TimeSequenceCollection is immutable; adding a TimeSequence builds a new
// collection and swaps the pointer.
type TimeSequenceCollection struct {
	parent *Kmetric
	dict   map[string]*TimeSequence // key is `-` separated tag values, same order as tagNames
}

func CreateTimeSequenceCollection(parent *Kmetric) *TimeSequenceCollection {
	return &TimeSequenceCollection{
		parent: parent,
		dict:   map[string]*TimeSequence{},
	}
}

// 1 TimeSequence = 1 unique tag value combination.
type TimeSequence struct {
	parent      *Kmetric
	key         string
	tagValues   []string
	labelValues []metricdata.LabelValue
	count       int64
	sum         int64
}

func CreateTimeSequence(ctx context.Context, key string, parent *Kmetric, tagValues []string) *TimeSequence {
	if len(tagValues) != len(parent.tagNames) {
		ke := kerror.Create("InvalidTagValues", "number of tag values does not match tag name list").
			With("expectedLen", len(parent.tagNames)).
			With("gotLen", len(tagValues))
		panic(ke)
	}
	seq := &TimeSequence{
		parent:    parent,
		key:       key,
		tagValues: tagValues,
	}
	values := make([]metricdata.LabelValue, len(tagValues))
	for i, item := range tagValues {
		values[i] = metricdata.NewLabelValue(item)
	}
	seq.labelValues = values

	metricName := parent.metricName
	tagKey := key
	ctxCopy := ctx
	go func() {
		// defer this log into another goroutine to avoid dead-lock by re-entry
		klogging.Verbose(ctxCopy).With("metricName", metricName).With("tagKey", tagKey).Log("CreateTimeSequence", "")
	}()
	return seq
}

func (ts *TimeSequence) Add(val int64) {
	atomic.AddInt64(&ts.count, 1)
	atomic.AddInt64(&ts.sum, val)
}

// Touch creates this time sequence without recording a value, so rare events
// show up as 0 before they first happen.
func (ts *TimeSequence) Touch() {
	// no-op
}

func (ts *TimeSequence) Get() (count int64, sum int64) {
	return atomic.LoadInt64(&ts.count), atomic.LoadInt64(&ts.sum)
}

func (ts *TimeSequence) ReadSum() *metricdata.TimeSeries {
	point := metricdata.Point{Time: time.Now(), Value: atomic.LoadInt64(&ts.sum)}
	return &metricdata.TimeSeries{
		LabelValues: ts.labelValues,
		Points:      []metricdata.Point{point},
		StartTime:   ts.parent.startTime,
	}
}

func (ts *TimeSequence) ReadCount() *metricdata.TimeSeries {
	point := metricdata.Point{Time: time.Now(), Value: atomic.LoadInt64(&ts.count)}
	return &metricdata.TimeSeries{
		LabelValues: ts.labelValues,
		Points:      []metricdata.Point{point},
		StartTime:   ts.parent.startTime,
	}
}
