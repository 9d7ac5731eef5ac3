// eventreco - personalized event recommendation engine
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package recommend implements the online recommendation engine: a fixed
// six-step pipeline (synthesize the viewer's vector, retrieve candidates,
// apply social boost, apply recency weighting, compute the final score,
// rank) parameterized by one of three closed scoring strategies. Every
// step may bail out to a popularity fallback; the engine never returns an
// empty success.
package recommend
