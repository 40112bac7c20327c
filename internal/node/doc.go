// Package node defines the state model for a monitored node and the update
// protocol that mutates it.
//
// A State value describes one configured node slot: overall status, chain
// height, per-service statuses, and backend-specific metrics. States are
// owned by exactly one consumer (the TUI model or the headless reporter);
// background providers never hold a reference to a State. Instead they emit
// Update values - small, inspectable structs naming what changed - and the
// owner applies them one at a time, replacing the slot by value. This
// serializes every mutation through a single point and removes the need for
// any lock around node state.
//
// Cross-cutting invariants are enforced centrally in the Apply methods
// rather than in the producers:
//
//   - reported chain height never decreases; a poll carrying a lower height
//     than currently held is ignored
//   - a repeated new-block notification for the same hash is idempotent;
//     height advances at most once per distinct hash
//   - push-feed socket events touch only the feed's own service status,
//     never the poll-derived overall status
//   - lightning metrics survive an outage at their last known values
package node
