package maestro

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestDedupWindowProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	// For any sequence of ids, the window never exceeds its cap and every
	// id reads as a duplicate immediately after being remembered.
	properties.Property("window stays bounded and consistent", prop.ForAll(
		func(ids []int) bool {
			w := newDedupWindow()
			for _, n := range ids {
				id := fmt.Sprintf("m%d", n)
				w.remember(id)
				if w.size() > dedupMax {
					return false
				}
				if !w.remember(id) {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 5000)),
	))

	// Duplicate suppression: a redelivered id inside the retained window
	// is reported as seen, regardless of what arrived in between.
	properties.Property("redelivery within the retained window is suppressed", prop.ForAll(
		func(fill int) bool {
			if fill < 0 {
				fill = 0
			}
			if fill >= dedupKeep {
				fill = dedupKeep - 1
			}
			w := newDedupWindow()
			w.remember("target")
			for i := 0; i < fill; i++ {
				w.remember(fmt.Sprintf("filler%d", i))
			}
			return w.remember("target")
		},
		gen.IntRange(0, dedupKeep-1),
	))

	// Trim keeps exactly the newest half: after overflowing a full
	// window, the oldest ids are forgotten and the newest retained.
	properties.Property("trim retains the newest ids", prop.ForAll(
		func(probe int) bool {
			w := newDedupWindow()
			for i := 0; i < dedupMax+1; i++ {
				w.remember(fmt.Sprintf("m%d", i))
			}
			oldIdx := probe % (dedupMax - dedupKeep)
			newIdx := dedupMax - 1 - probe%dedupKeep
			if !w.remember(fmt.Sprintf("m%d", newIdx)) {
				return false // retained id must still be known
			}
			// An evicted id reads as fresh again.
			return !w.remember(fmt.Sprintf("m%d", oldIdx))
		},
		gen.IntRange(0, dedupMax),
	))

	properties.TestingRun(t)
}
