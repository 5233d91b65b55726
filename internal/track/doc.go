// Package track owns the track store and lifecycle state machine of the
// tracking-by-detection engine.
//
// Responsibilities: greedy detection-to-track association, expiry of
// undetected tracks, per-frame advancement through the single-object
// tracker backend, spawning tracks for unmatched detections, and
// aggregate metrics.
//
// The Store is the sole owner of Track entities and their backends;
// no other component may create or destroy them.
package track
