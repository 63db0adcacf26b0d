// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EcoTrack Contributors

// Package maintenance holds one-off database repair procedures run by
// operators from the ecotrack CLI.
package maintenance
