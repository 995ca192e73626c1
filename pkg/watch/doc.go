// Package watch provides a single-value cell whose subscribers observe the
// latest value rather than every intermediate one.
//
// A Cell holds one value of any type. Writers serialize on an internal lock;
// readers never wait on other readers. Every write bumps a version counter and
// wakes all subscribers by closing the channel associated with the previous
// version. A subscriber that falls behind simply sees the newest value the next
// time it looks, so there is no backlog to drain:
//
//	cell := watch.New(section.State{})
//	sub := cell.Subscribe()
//
//	go func() {
//	    for {
//	        st, err := sub.Wait(ctx)
//	        if err != nil {
//	            return
//	        }
//	        render(st)
//	    }
//	}()
//
//	cell.Replace(section.State{Category: 'C'})
//
// Writes are never deduplicated: writing an equal value still wakes subscribers.
package watch
