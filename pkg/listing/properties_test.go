package listing_test

import (
	"context"
	"errors"
	"testing"

	"pgregory.net/rapid"

	"github.com/sgaunet/s2console/pkg/listing"
)

func TestPropertySetLimitAlignsOffset(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		total := rapid.IntRange(0, 500).Draw(t, "total")
		offset := rapid.IntRange(0, 600).Draw(t, "offset")
		limit := rapid.IntRange(1, 200).Draw(t, "limit")

		c := newController(newFakeService(total), nil)
		ctx := context.Background()
		c.Do(ctx, c.Initialize(ctx, ""))
		c.SetOffset(offset)

		req, err := c.SetLimit(limit)
		if err != nil {
			t.Fatalf("SetLimit(%d): %v", limit, err)
		}
		want := (offset / limit) * limit
		if req.Query.Offset != want {
			t.Fatalf("offset after SetLimit(%d) from %d = %d, want %d", limit, offset, req.Query.Offset, want)
		}
		if req.Query.Offset%limit != 0 {
			t.Fatalf("offset %d is not a multiple of %d", req.Query.Offset, limit)
		}
	})
}

func TestPropertyItemsBoundedByLimit(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		total := rapid.IntRange(0, 300).Draw(t, "total")
		c := newController(newFakeService(total), nil)
		ctx := context.Background()
		c.Do(ctx, c.Initialize(ctx, ""))

		steps := rapid.IntRange(1, 20).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			switch rapid.IntRange(0, 3).Draw(t, "action") {
			case 0:
				c.Do(ctx, c.SetOffset(rapid.IntRange(-10, 350).Draw(t, "offset")))
			case 1:
				req, err := c.SetLimit(rapid.IntRange(1, 120).Draw(t, "limit"))
				if err != nil {
					t.Fatalf("SetLimit: %v", err)
				}
				c.Do(ctx, req)
			case 2:
				c.Do(ctx, c.SetPattern(rapid.SampledFrom([]string{"*", "item-1*", "item-?5", "none"}).Draw(t, "pattern")))
			default:
				c.Do(ctx, c.Refresh())
			}
			st := c.Snapshot()
			if len(st.Items) > st.Limit {
				t.Fatalf("%d items shown with limit %d", len(st.Items), st.Limit)
			}
			if st.Offset < 0 || st.Total < 0 {
				t.Fatalf("negative window: offset=%d total=%d", st.Offset, st.Total)
			}
		}
	})
}

func TestPropertyTransportErrorOnlySetsMessage(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		total := rapid.IntRange(0, 300).Draw(t, "total")
		svc := newFakeService(total)
		c := newController(svc, nil)
		ctx := context.Background()
		c.Do(ctx, c.Initialize(ctx, ""))
		c.Do(ctx, c.SetOffset(rapid.IntRange(0, 300).Draw(t, "offset")))

		var req listing.Request
		switch rapid.IntRange(0, 2).Draw(t, "action") {
		case 0:
			req = c.Refresh()
		case 1:
			req = c.SetOffset(rapid.IntRange(0, 300).Draw(t, "next"))
		default:
			req = c.SetPattern("item-*")
		}
		before := c.Snapshot()

		svc.fail(&listing.TransportError{Op: "bucket pagelist", Err: errors.New("connection reset")})
		c.Apply(c.Fetch(ctx, req))
		after := c.Snapshot()

		if after.ErrorMessage != listing.MsgCommunicationError {
			t.Fatalf("error message = %q", after.ErrorMessage)
		}
		if after.Total != before.Total || after.Offset != before.Offset || after.Limit != before.Limit {
			t.Fatalf("window changed: before %+v after %+v", before, after)
		}
		if len(after.Items) != len(before.Items) {
			t.Fatalf("items changed: %d -> %d", len(before.Items), len(after.Items))
		}
		for i := range after.Items {
			if after.Items[i] != before.Items[i] {
				t.Fatalf("item %d changed: %q -> %q", i, before.Items[i], after.Items[i])
			}
		}
	})
}
