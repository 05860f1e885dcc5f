// Ltvpipe - Customer Lifetime Value Modeling Pipeline
// Copyright 2026 J. Andre (jandre17)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jandre17/ltvpipe

// Package config loads and validates pipeline configuration.
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//   - Environment variables (see envTransformFunc for the mapping)
//   - Config file (ltvpipe.yaml, or LTV_CONFIG_PATH)
//   - Built-in defaults
package config
