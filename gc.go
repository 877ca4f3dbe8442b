package yarel

import (
	"fmt"
	"io"

	"github.com/zephyrtronium/contains"
)

// Approximate per-object sizes used for the collection trigger. The figures
// only pace the collector; they do not need to match Go's real footprints.
const (
	sizeValue    = 24
	sizeString   = 56
	sizeFunction = 96
	sizeClosure  = 64
	sizeUpvalue  = 72
	sizeNative   = 48
	sizeClass    = 120
	sizeInstance = 88
	sizeBound    = 56
	sizeList     = 64
	sizeMap      = 96
	sizeRange    = 48
	sizeIter     = 56
	sizeFiber    = 160
	sizeDate     = 48
)

// Heap tracks every live runtime object for the VM's precise, non-moving
// mark-sweep collector. A cycle runs when the total tracked allocation
// volume reaches an adaptive threshold, which each cycle resets to the
// surviving volume scaled by the growth factor. The trigger counts every
// tracked byte, not only the bytes allocated since the previous cycle.
type Heap struct {
	vm      *VM
	objects []Obj

	bytes     int
	threshold int
	growth    float64

	// marked is the mark set for the current cycle, keyed by object IDs.
	marked contains.Set
	// gray is the worklist of marked objects whose children are untraced.
	gray []Obj

	// stress forces a full collection on every allocation; tests use it to
	// shake out unrooted temporaries.
	stress bool
	// trace receives a log line per cycle when non-nil.
	trace io.Writer

	cycles     int
	freedTotal int
}

func newHeap(vm *VM, cfg *Config) *Heap {
	return &Heap{
		vm:        vm,
		threshold: cfg.HeapThreshold,
		growth:    cfg.HeapGrowth,
		trace:     cfg.HeapTrace,
	}
}

// adopt takes ownership of a freshly constructed object. Collection, if
// due, happens before the object is tracked, so a new object is never swept
// during the allocation that creates it. Any earlier allocations the object
// refers to must be reachable from the VM's roots, or pinned with
// pushTempRoot, before adopt is called.
func (h *Heap) adopt(o Obj) {
	if h.stress || h.bytes >= h.threshold {
		h.collect()
	}
	h.objects = append(h.objects, o)
	h.bytes += objSize(o)
}

func objSize(o Obj) int {
	type sized interface{ objectSize() int }
	if s, ok := o.(sized); ok {
		return s.objectSize()
	}
	return sizeValue
}

func (o *object) objectSize() int { return o.size }

// Live returns the number of tracked objects.
func (h *Heap) Live() int { return len(h.objects) }

// Bytes returns the tracked allocation volume.
func (h *Heap) Bytes() int { return h.bytes }

// Threshold returns the allocation volume that triggers the next cycle.
func (h *Heap) Threshold() int { return h.threshold }

// Cycles returns the number of completed collection cycles.
func (h *Heap) Cycles() int { return h.cycles }

// collect runs a full mark-sweep cycle and returns the number of objects
// freed.
func (h *Heap) collect() int {
	h.marked.Reset()
	h.gray = h.gray[:0]

	mk := marker{heap: h}
	h.vm.markRoots(&mk)
	for len(h.gray) > 0 {
		o := h.gray[len(h.gray)-1]
		h.gray = h.gray[:len(h.gray)-1]
		o.trace(&mk)
	}

	freed := h.sweep()
	h.threshold = int(float64(h.bytes) * h.growth)
	if h.threshold < minHeapThreshold {
		h.threshold = minHeapThreshold
	}
	h.cycles++
	h.freedTotal += freed
	if h.trace != nil {
		fmt.Fprintf(h.trace, "gc: cycle %d freed %d objects, %d live, next at %d bytes\n",
			h.cycles, freed, len(h.objects), h.threshold)
	}
	return freed
}

// sweep drops unmarked objects and prunes the weak intern table.
func (h *Heap) sweep() int {
	kept := h.objects[:0]
	freed := 0
	for _, o := range h.objects {
		// Add reports whether the ID was absent, so a false result means
		// the mark phase already visited the object.
		if !h.marked.Add(o.UniqueID()) {
			kept = append(kept, o)
			continue
		}
		if s, ok := o.(*ObjString); ok {
			delete(h.vm.strings, s.s)
		}
		h.bytes -= objSize(o)
		freed++
	}
	// Clear the tail so the dropped objects are collectable by the host
	// runtime.
	for i := len(kept); i < len(h.objects); i++ {
		h.objects[i] = nil
	}
	h.objects = kept
	return freed
}

const minHeapThreshold = 1 << 16

// marker accumulates the reachable object set during a cycle.
type marker struct {
	heap *Heap
}

// markObj adds an object to the mark set and queues it for tracing.
func (mk *marker) markObj(o Obj) {
	if o == nil {
		return
	}
	if mk.heap.marked.Add(o.UniqueID()) {
		mk.heap.gray = append(mk.heap.gray, o)
	}
}

// markValue marks the object referenced by a value, if any.
func (mk *marker) markValue(v Value) {
	if v.IsObj() {
		mk.markObj(v.AsObj())
	}
}
